package bitwire

import (
	"bytes"
	"context"
	"time"
)

// Serializer binds a flag type to a Codec.
//
// Serializers hold no mutable state and are safe for concurrent use. Every
// call emits start and complete signals; the encode and decode paths
// themselves never log.
type Serializer[T Retainer[T, B], B Bits] struct {
	codec    Codec
	typeName string
}

// NewSerializer creates a Serializer for flag type T using codec.
func NewSerializer[T Retainer[T, B], B Bits](codec Codec) *Serializer[T, B] {
	s := &Serializer[T, B]{
		codec:    codec,
		typeName: TypeName[T](),
	}
	emitSerializerCreated(context.Background(), codec.ContentType(), s.typeName)
	return s
}

// ContentType returns the MIME type of the underlying codec.
func (s *Serializer[T, B]) ContentType() string {
	return s.codec.ContentType()
}

// TypeName returns the record label written for T.
func (s *Serializer[T, B]) TypeName() string {
	return s.typeName
}

// Marshal encodes v as a single record.
func (s *Serializer[T, B]) Marshal(ctx context.Context, v T) ([]byte, error) {
	start := time.Now()
	contentType := s.codec.ContentType()
	emitMarshalStart(ctx, contentType, s.typeName)

	var buf bytes.Buffer
	err := Encode[B](s.codec.NewWriter(&buf), v)
	if err != nil {
		emitMarshalComplete(ctx, contentType, s.typeName, 0, time.Since(start), err)
		return nil, err
	}

	emitMarshalComplete(ctx, contentType, s.typeName, buf.Len(), time.Since(start), nil)
	return buf.Bytes(), nil
}

// Unmarshal decodes a single record into a T.
func (s *Serializer[T, B]) Unmarshal(ctx context.Context, data []byte) (T, error) {
	start := time.Now()
	contentType := s.codec.ContentType()
	emitUnmarshalStart(ctx, contentType, s.typeName)

	v, err := Decode[T, B](s.codec.NewReader(data))
	emitUnmarshalComplete(ctx, contentType, s.typeName, len(data), time.Since(start), err)
	return v, err
}
