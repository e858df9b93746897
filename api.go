// Package bitwire encodes and decodes bit-flag sets in a fixed legacy wire shape.
//
// A flag set is an integer bitmask with names attached to some of its bits.
// On the wire it is always a record with exactly one field, bits, holding the
// raw integer:
//
//	{"bits": 3}
//
// The shape never changes, so flag types may gain names, change width or add
// validation without breaking consumers that stored or transmitted the old
// format. Bits without a name are carried through untouched in both
// directions.
//
// # Flag Types
//
// A flag type exposes its raw bits and a constructor that keeps unknown bits:
//
//	type Perm uint32
//
//	const (
//	    Read Perm = 1 << iota
//	    Write
//	    Exec
//	)
//
//	func (p Perm) Bits() uint32                    { return uint32(p) }
//	func (Perm) FromBitsRetain(bits uint32) Perm   { return Perm(bits) }
//
// # Basic Usage
//
//	data, _ := bitwire.Marshal[uint32](json.New(), Read|Write) // {"bits":3}
//	perm, _ := bitwire.Unmarshal[Perm, uint32](json.New(), data)
//
// # Decoding Rules
//
// Decoding is strict. The record must contain bits exactly once and nothing
// else:
//
//   - a second bits field fails with ErrDuplicateField
//   - any other field fails with ErrUnknownField
//   - a record without bits fails with ErrMissingField
//   - input that is not a record at all fails with ErrInvalidType
//
// The record label written on encode is diagnostic only and is never checked
// on decode.
//
// # Codec Providers
//
// The following wire formats are available as sub-packages:
//
//   - json - JSON encoding (application/json)
//   - yaml - YAML encoding (application/yaml)
//   - xml - XML encoding (application/xml)
//   - msgpack - MessagePack encoding (application/msgpack)
//   - bson - BSON encoding (application/bson)
//   - cbor - CBOR encoding (application/cbor)
//
// Each provider also exposes helpers so a flag type can implement the
// format's native marshaler interfaces by delegating to this package.
package bitwire

import "reflect"

// Bits is the raw storage of a flag set.
type Bits interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Flags is implemented by every flag type that can be encoded.
type Flags[B Bits] interface {
	// Bits returns the full raw value, including bits with no assigned name.
	Bits() B
}

// Retainer is implemented by flag types that can be decoded.
//
// FromBitsRetain is called on the zero value of T and must return a value
// holding exactly the given bits. It must not mask or reject unknown bits.
type Retainer[T any, B Bits] interface {
	Flags[B]
	FromBitsRetain(bits B) T
}

// FieldBits is the only field of the wire record.
const FieldBits = "bits"

// recordFields lists the fields a reader should expect.
var recordFields = []string{FieldBits}

// TypeName returns the diagnostic label used for records of type T.
func TypeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// typeNameOf returns the label for a dynamic value.
func typeNameOf(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
