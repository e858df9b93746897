// Package cbor provides a CBOR record codec.
//
// Records are written as text-keyed maps using Core Deterministic Encoding
// (RFC 8949 §4.2), so the same flag value always produces identical bytes.
// Reading accepts definite and indefinite-length maps and visits keys in
// input order, duplicates included.
package cbor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/zoobzio/bitwire"
)

// CBOR major types used when inspecting a record head.
const (
	majorMap   = 5
	infoIndef  = 31
	breakCode  = 0xff
	majorShift = 5
	infoMask   = 0x1f
)

// encMode writes smallest-width integers with sorted map keys.
var encMode cbor.EncMode

// decMode decodes field keys and values.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cbor: encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("cbor: decoder initialization failed: " + err.Error())
	}
}

// cborCodec implements bitwire.Codec for CBOR.
type cborCodec struct{}

// New returns a CBOR codec.
func New() bitwire.Codec {
	return &cborCodec{}
}

// ContentType returns the MIME type for CBOR.
func (c *cborCodec) ContentType() string {
	return "application/cbor"
}

// NewWriter returns a writer that emits one map to w.
func (c *cborCodec) NewWriter(w io.Writer) bitwire.RecordWriter {
	return &recordWriter{w: w}
}

// NewReader returns a reader over exactly one CBOR data item.
func (c *cborCodec) NewReader(data []byte) bitwire.RecordReader {
	return &recordReader{data: data}
}

// Marshal encodes v as a CBOR record. Flag types use it to implement
// cbor.Marshaler.
func Marshal[B bitwire.Bits](v bitwire.Flags[B]) ([]byte, error) {
	return bitwire.Marshal(New(), v)
}

// Unmarshal decodes a CBOR record. Flag types use it to implement
// cbor.Unmarshaler.
func Unmarshal[T bitwire.Retainer[T, B], B bitwire.Bits](data []byte) (T, error) {
	return bitwire.Unmarshal[T, B](New(), data)
}

// recordWriter collects fields and encodes them as a map on EndRecord.
type recordWriter struct {
	w      io.Writer
	fields map[string]any
}

func (rw *recordWriter) BeginRecord(_ string, fields int) error {
	if rw.fields != nil {
		return errors.New("cbor: record already open")
	}
	rw.fields = make(map[string]any, fields)
	return nil
}

func (rw *recordWriter) WriteField(name string, value any) error {
	if rw.fields == nil {
		return fmt.Errorf("cbor: field %q written outside a record", name)
	}
	if _, ok := rw.fields[name]; ok {
		return fmt.Errorf("cbor: field %q written twice", name)
	}
	rw.fields[name] = value
	return nil
}

func (rw *recordWriter) EndRecord() error {
	if rw.fields == nil {
		return errors.New("cbor: no open record")
	}
	data, err := encMode.Marshal(rw.fields)
	rw.fields = nil
	if err != nil {
		return err
	}
	_, err = rw.w.Write(data)
	return err
}

// recordReader walks the entries of a single map item.
type recordReader struct {
	data []byte
}

func (rr *recordReader) ReadRecord(_ string, _ []string, visitor bitwire.FieldVisitor) error {
	if err := decMode.Wellformed(rr.data); err != nil {
		return err
	}

	head := rr.data[0]
	if major := head >> majorShift; major != majorMap {
		return &bitwire.TypeError{Found: describe(head), Expected: visitor.Expecting()}
	}

	n, rest := mapLength(rr.data)
	for i := 0; n < 0 || i < n; i++ {
		if n < 0 && rest[0] == breakCode {
			break
		}

		var (
			key string
			err error
		)
		rest, err = decMode.UnmarshalFirst(rest, &key)
		if err != nil {
			return err
		}
		var value cbor.RawMessage
		rest, err = decMode.UnmarshalFirst(rest, &value)
		if err != nil {
			return err
		}
		if err := visitor.VisitField(key, &valueDecoder{raw: value}); err != nil {
			return err
		}
	}
	return visitor.End()
}

// mapLength reads the head of a well-formed map. It returns -1 for
// indefinite-length maps, along with the bytes after the head.
func mapLength(data []byte) (int, []byte) {
	info := data[0] & infoMask
	switch {
	case info < 24:
		return int(info), data[1:]
	case info == 24:
		return int(data[1]), data[2:]
	case info == 25:
		return int(binary.BigEndian.Uint16(data[1:])), data[3:]
	case info == 26:
		return int(binary.BigEndian.Uint32(data[1:])), data[5:]
	case info == 27:
		return int(binary.BigEndian.Uint64(data[1:])), data[9:]
	case info == infoIndef:
		return -1, data[1:]
	}
	return 0, data[1:]
}

// valueDecoder decodes a raw field value.
type valueDecoder struct {
	raw cbor.RawMessage
}

func (d *valueDecoder) Decode(v any) error {
	return decMode.Unmarshal(d.raw, v)
}

// describe names the CBOR major type of a head byte for diagnostics.
func describe(head byte) string {
	switch head {
	case 0xf4, 0xf5:
		return "boolean"
	case 0xf6:
		return "null"
	case 0xf7:
		return "undefined"
	}
	switch head >> majorShift {
	case 0, 1:
		return "integer"
	case 2:
		return "byte string"
	case 3:
		return "text string"
	case 4:
		return "array"
	case 6:
		return "tagged item"
	}
	return "simple value"
}
