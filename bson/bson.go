// Package bson provides a BSON record codec.
//
// BSON has no unsigned integers. The driver stores bits as a signed integer
// (int32 for 8 and 16-bit flag types, int64 otherwise). A 64-bit flag value
// with the top bit set cannot be represented and fails to encode.
package bson

import (
	"errors"
	"fmt"
	"io"

	"github.com/zoobzio/bitwire"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// bsonCodec implements bitwire.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() bitwire.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// NewWriter returns a writer that emits one document to w.
func (c *bsonCodec) NewWriter(w io.Writer) bitwire.RecordWriter {
	return &recordWriter{w: w}
}

// NewReader returns a reader over one document.
func (c *bsonCodec) NewReader(data []byte) bitwire.RecordReader {
	return &recordReader{raw: bson.Raw(data)}
}

// Marshal encodes v as a BSON document. Flag types use it to implement
// bson.Marshaler.
func Marshal[B bitwire.Bits](v bitwire.Flags[B]) ([]byte, error) {
	return bitwire.Marshal(New(), v)
}

// Unmarshal decodes a BSON document. Flag types use it to implement
// bson.Unmarshaler.
func Unmarshal[T bitwire.Retainer[T, B], B bitwire.Bits](data []byte) (T, error) {
	return bitwire.Unmarshal[T, B](New(), data)
}

// recordWriter collects fields in order and marshals them on EndRecord.
type recordWriter struct {
	w    io.Writer
	doc  bson.D
	open bool
}

func (rw *recordWriter) BeginRecord(_ string, fields int) error {
	if rw.open {
		return errors.New("bson: record already open")
	}
	rw.open = true
	rw.doc = make(bson.D, 0, fields)
	return nil
}

func (rw *recordWriter) WriteField(name string, value any) error {
	if !rw.open {
		return fmt.Errorf("bson: field %q written outside a record", name)
	}
	rw.doc = append(rw.doc, bson.E{Key: name, Value: value})
	return nil
}

func (rw *recordWriter) EndRecord() error {
	if !rw.open {
		return errors.New("bson: no open record")
	}
	rw.open = false
	data, err := bson.Marshal(rw.doc)
	if err != nil {
		return err
	}
	_, err = rw.w.Write(data)
	return err
}

// recordReader walks the elements of a document in order. Duplicate keys
// are kept by the raw element list and reach the visitor.
type recordReader struct {
	raw bson.Raw
}

func (rr *recordReader) ReadRecord(_ string, _ []string, visitor bitwire.FieldVisitor) error {
	if err := rr.raw.Validate(); err != nil {
		return err
	}
	// Validate only covers the bytes inside the length prefix.
	if length, _, _ := bsoncore.ReadLength(rr.raw); int(length) < len(rr.raw) {
		return fmt.Errorf("bson: %d bytes of trailing data after document", len(rr.raw)-int(length))
	}
	elems, err := rr.raw.Elements()
	if err != nil {
		return err
	}
	for _, elem := range elems {
		if err := visitor.VisitField(elem.Key(), &valueDecoder{value: elem.Value()}); err != nil {
			return err
		}
	}
	return visitor.End()
}

// valueDecoder decodes a raw element value.
type valueDecoder struct {
	value bson.RawValue
}

func (d *valueDecoder) Decode(v any) error {
	return d.value.Unmarshal(v)
}
