// Package json provides a JSON record codec.
//
// Records are JSON objects. Reading walks the object token by token, so a
// repeated key reaches the visitor instead of silently overwriting the first
// occurrence.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/zoobzio/bitwire"
)

// jsonCodec implements bitwire.Codec for JSON.
type jsonCodec struct{}

// New returns a JSON codec.
func New() bitwire.Codec {
	return &jsonCodec{}
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// NewWriter returns a writer that emits one JSON object to w.
func (c *jsonCodec) NewWriter(w io.Writer) bitwire.RecordWriter {
	return &recordWriter{w: w}
}

// NewReader returns a reader over one JSON object.
func (c *jsonCodec) NewReader(data []byte) bitwire.RecordReader {
	return &recordReader{data: data}
}

// Marshal encodes v as a JSON record. Flag types use it to implement
// json.Marshaler.
func Marshal[B bitwire.Bits](v bitwire.Flags[B]) ([]byte, error) {
	return bitwire.Marshal(New(), v)
}

// Unmarshal decodes a JSON record. Flag types use it to implement
// json.Unmarshaler.
func Unmarshal[T bitwire.Retainer[T, B], B bitwire.Bits](data []byte) (T, error) {
	return bitwire.Unmarshal[T, B](New(), data)
}

// recordWriter buffers the object and writes it on EndRecord.
type recordWriter struct {
	w      io.Writer
	buf    bytes.Buffer
	open   bool
	fields int
}

func (rw *recordWriter) BeginRecord(_ string, _ int) error {
	if rw.open {
		return errors.New("json: record already open")
	}
	rw.open = true
	rw.fields = 0
	rw.buf.Reset()
	rw.buf.WriteByte('{')
	return nil
}

func (rw *recordWriter) WriteField(name string, value any) error {
	if !rw.open {
		return fmt.Errorf("json: field %q written outside a record", name)
	}
	key, err := json.Marshal(name)
	if err != nil {
		return err
	}
	val, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if rw.fields > 0 {
		rw.buf.WriteByte(',')
	}
	rw.buf.Write(key)
	rw.buf.WriteByte(':')
	rw.buf.Write(val)
	rw.fields++
	return nil
}

func (rw *recordWriter) EndRecord() error {
	if !rw.open {
		return errors.New("json: no open record")
	}
	rw.open = false
	rw.buf.WriteByte('}')
	_, err := rw.w.Write(rw.buf.Bytes())
	return err
}

// recordReader walks a single JSON object.
type recordReader struct {
	data []byte
}

func (rr *recordReader) ReadRecord(_ string, _ []string, visitor bitwire.FieldVisitor) error {
	dec := json.NewDecoder(bytes.NewReader(rr.data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return &bitwire.TypeError{Found: describe(tok), Expected: visitor.Expecting()}
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("json: unexpected object key %v", tok)
		}
		value := &valueDecoder{dec: dec}
		if err := visitor.VisitField(key, value); err != nil {
			return err
		}
		if !value.used {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return err
			}
		}
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	if err := visitor.End(); err != nil {
		return err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return err
		}
		return errors.New("json: trailing data after record")
	}
	return nil
}

// valueDecoder decodes the value following the current key.
type valueDecoder struct {
	dec  *json.Decoder
	used bool
}

func (d *valueDecoder) Decode(v any) error {
	if d.used {
		return errors.New("json: field value already decoded")
	}
	d.used = true
	return d.dec.Decode(v)
}

// describe names the JSON kind of a token for diagnostics.
func describe(tok json.Token) string {
	switch t := tok.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case json.Delim:
		if t == '[' {
			return "array"
		}
	}
	return fmt.Sprintf("%v", tok)
}
