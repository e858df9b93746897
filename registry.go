package bitwire

import (
	"reflect"
	"sync"
)

// registryKey combines flag type and codec for cache lookup.
type registryKey struct {
	typ         reflect.Type
	contentType string
}

var (
	registry   = make(map[registryKey]any)
	registryMu sync.RWMutex
)

// Use returns a cached serializer or builds a new one.
// The serializer is cached by flag type and codec content type.
func Use[T Retainer[T, B], B Bits](codec Codec) *Serializer[T, B] {
	key := registryKey{typ: reflect.TypeFor[T](), contentType: codec.ContentType()}

	// Fast path: read-lock cache check
	registryMu.RLock()
	if cached, ok := registry[key]; ok {
		registryMu.RUnlock()
		return cached.(*Serializer[T, B])
	}
	registryMu.RUnlock()

	registryMu.Lock()
	defer registryMu.Unlock()

	if cached, ok := registry[key]; ok {
		return cached.(*Serializer[T, B])
	}

	s := NewSerializer[T, B](codec)
	registry[key] = s
	return s
}

// Reset clears the serializer registry.
// This is primarily useful for test isolation.
func Reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[registryKey]any)
}
