// Package msgpack provides a MessagePack record codec.
//
// Records are written as maps keyed by field name, never in the compact
// array form, so the field name stays on the wire.
package msgpack

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
	"github.com/zoobzio/bitwire"
)

// msgpackCodec implements bitwire.Codec for MessagePack.
type msgpackCodec struct{}

// New returns a MessagePack codec.
func New() bitwire.Codec {
	return &msgpackCodec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *msgpackCodec) ContentType() string {
	return "application/msgpack"
}

// NewWriter returns a writer that streams one map to w.
func (c *msgpackCodec) NewWriter(w io.Writer) bitwire.RecordWriter {
	return &recordWriter{enc: msgpack.NewEncoder(w)}
}

// NewReader returns a reader over one map. Bytes after the map are an error.
func (c *msgpackCodec) NewReader(data []byte) bitwire.RecordReader {
	return &bufferReader{src: bytes.NewReader(data)}
}

// Encode writes v to enc. Flag types use it to implement
// msgpack.CustomEncoder.
func Encode[B bitwire.Bits](enc *msgpack.Encoder, v bitwire.Flags[B]) error {
	return bitwire.Encode(&recordWriter{enc: enc}, v)
}

// Decode reads one record from dec. Flag types use it to implement
// msgpack.CustomDecoder.
func Decode[T bitwire.Retainer[T, B], B bitwire.Bits](dec *msgpack.Decoder) (T, error) {
	return bitwire.Decode[T, B](&recordReader{dec: dec})
}

// recordWriter writes a map header followed by key/value pairs.
type recordWriter struct {
	enc *msgpack.Encoder
}

func (rw *recordWriter) BeginRecord(_ string, fields int) error {
	return rw.enc.EncodeMapLen(fields)
}

func (rw *recordWriter) WriteField(name string, value any) error {
	if err := rw.enc.EncodeString(name); err != nil {
		return err
	}
	return rw.enc.Encode(value)
}

func (rw *recordWriter) EndRecord() error {
	return nil
}

// recordReader reads one map from a decoder.
type recordReader struct {
	dec *msgpack.Decoder
}

func (rr *recordReader) ReadRecord(_ string, _ []string, visitor bitwire.FieldVisitor) error {
	code, err := rr.dec.PeekCode()
	if err != nil {
		return err
	}
	if !isMap(code) {
		return &bitwire.TypeError{Found: describe(code), Expected: visitor.Expecting()}
	}

	n, err := rr.dec.DecodeMapLen()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		key, err := rr.dec.DecodeString()
		if err != nil {
			return err
		}
		value := &valueDecoder{dec: rr.dec}
		if err := visitor.VisitField(key, value); err != nil {
			return err
		}
		if !value.used {
			if err := rr.dec.Skip(); err != nil {
				return err
			}
		}
	}
	return visitor.End()
}

// bufferReader reads a record from a complete buffer and rejects leftovers.
type bufferReader struct {
	src *bytes.Reader
}

func (br *bufferReader) ReadRecord(name string, fields []string, visitor bitwire.FieldVisitor) error {
	// bytes.Reader is an io.ByteScanner, so the decoder reads it unbuffered
	// and src.Len reports exactly what is left.
	rr := &recordReader{dec: msgpack.NewDecoder(br.src)}
	if err := rr.ReadRecord(name, fields, visitor); err != nil {
		return err
	}
	if br.src.Len() > 0 {
		return fmt.Errorf("msgpack: %d bytes of trailing data after record", br.src.Len())
	}
	return nil
}

// valueDecoder decodes the value following the current key.
type valueDecoder struct {
	dec  *msgpack.Decoder
	used bool
}

func (d *valueDecoder) Decode(v any) error {
	if d.used {
		return errors.New("msgpack: field value already decoded")
	}
	d.used = true
	return d.dec.Decode(v)
}

func isMap(code byte) bool {
	return msgpcode.IsFixedMap(code) || code == msgpcode.Map16 || code == msgpcode.Map32
}

// describe names the MessagePack kind of a type code for diagnostics.
func describe(code byte) string {
	switch {
	case code == msgpcode.Nil:
		return "nil"
	case code == msgpcode.True || code == msgpcode.False:
		return "boolean"
	case msgpcode.IsFixedArray(code) || code == msgpcode.Array16 || code == msgpcode.Array32:
		return "array"
	case msgpcode.IsString(code):
		return "string"
	case msgpcode.IsBin(code):
		return "binary"
	case msgpcode.IsFixedNum(code) || code == msgpcode.Float || code == msgpcode.Double ||
		(code >= msgpcode.Uint8 && code <= msgpcode.Int64):
		return "number"
	}
	return fmt.Sprintf("type code 0x%02x", code)
}
