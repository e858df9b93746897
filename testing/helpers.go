// Package testing provides test utilities for bitwire.
package testing

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/zoobzio/bitwire"
)

// Flags is a 32-bit flag type with four named bits.
type Flags uint32

// Named bits of Flags.
const (
	A Flags = 1 << iota
	B
	C
	D
)

// Bits implements bitwire.Flags[uint32].
func (f Flags) Bits() uint32 { return uint32(f) }

// FromBitsRetain implements bitwire.Retainer[Flags, uint32].
func (Flags) FromBitsRetain(bits uint32) Flags { return Flags(bits) }

// Small is an 8-bit flag type.
type Small uint8

// Bits implements bitwire.Flags[uint8].
func (s Small) Bits() uint8 { return uint8(s) }

// FromBitsRetain implements bitwire.Retainer[Small, uint8].
func (Small) FromBitsRetain(bits uint8) Small { return Small(bits) }

// Wide is a 64-bit flag type.
type Wide uint64

// Bits implements bitwire.Flags[uint64].
func (w Wide) Bits() uint64 { return uint64(w) }

// FromBitsRetain implements bitwire.Retainer[Wide, uint64].
func (Wide) FromBitsRetain(bits uint64) Wide { return Wide(bits) }

// Samples returns Flags values covering no bits, named bits, unnamed bits
// and every bit.
func Samples() []Flags {
	return []Flags{
		0,
		A,
		A | B,
		A | B | C | D,
		1 << 31,
		A | 1<<20,
		0xFFFFFFF0,
		0xFFFFFFFF,
	}
}

// Field is one field observed by a Recorder.
type Field struct {
	Name  string
	Value any
}

// Recorder is a RecordWriter that keeps everything it is given.
type Recorder struct {
	Name   string
	Count  int
	Fields []Field
	Ended  bool

	// Err, when set, is returned from WriteField.
	Err error
}

// BeginRecord implements bitwire.RecordWriter.
func (r *Recorder) BeginRecord(name string, fields int) error {
	r.Name = name
	r.Count = fields
	return nil
}

// WriteField implements bitwire.RecordWriter.
func (r *Recorder) WriteField(name string, value any) error {
	if r.Err != nil {
		return r.Err
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
	return nil
}

// EndRecord implements bitwire.RecordWriter.
func (r *Recorder) EndRecord() error {
	r.Ended = true
	return nil
}

// Record is a RecordReader that replays fields in order. Values are stored
// as uint64 and converted to the decode target.
type Record struct {
	Fields []Field

	// Visited counts fields handed to the visitor.
	Visited int
}

// ReadRecord implements bitwire.RecordReader.
func (r *Record) ReadRecord(_ string, _ []string, visitor bitwire.FieldVisitor) error {
	for _, f := range r.Fields {
		r.Visited++
		if err := visitor.VisitField(f.Name, fieldValue{value: f.Value}); err != nil {
			return err
		}
	}
	return visitor.End()
}

// fieldValue assigns a stored value to an unsigned integer pointer.
type fieldValue struct {
	value any
}

func (f fieldValue) Decode(v any) error {
	if err, ok := f.value.(error); ok {
		return err
	}
	target := reflect.ValueOf(v).Elem()
	target.SetUint(reflect.ValueOf(f.value).Uint())
	return nil
}

// RoundTrip encodes v with codec, decodes the result and fails t when the
// bits differ. It returns the encoded bytes.
func RoundTrip[T bitwire.Retainer[T, B], B bitwire.Bits](t testing.TB, codec bitwire.Codec, v T) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := bitwire.Encode[B](codec.NewWriter(&buf), v); err != nil {
		t.Fatalf("Encode(%v) error: %v", v.Bits(), err)
	}
	data := buf.Bytes()

	got, err := bitwire.Decode[T, B](codec.NewReader(data))
	if err != nil {
		t.Fatalf("Decode(%q) error: %v", data, err)
	}
	if got.Bits() != v.Bits() {
		t.Errorf("round-trip bits = %#x, want %#x", got.Bits(), v.Bits())
	}
	return data
}
