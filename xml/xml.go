// Package xml provides an XML record codec.
//
// A record is an element whose children are its fields:
//
//	<Perm><bits>3</bits></Perm>
//
// Attributes of the record element are read as fields too, so stray
// attributes are rejected like any other unknown field. Field elements must
// hold text only.
//
// The record element name is the diagnostic label. It is never checked when
// reading.
package xml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zoobzio/bitwire"
)

// defaultElement names records whose label is not a usable element name.
const defaultElement = "flags"

// xmlCodec implements bitwire.Codec for XML.
type xmlCodec struct{}

// New returns an XML codec.
func New() bitwire.Codec {
	return &xmlCodec{}
}

// ContentType returns the MIME type for XML.
func (c *xmlCodec) ContentType() string {
	return "application/xml"
}

// NewWriter returns a writer that emits one element to w.
func (c *xmlCodec) NewWriter(w io.Writer) bitwire.RecordWriter {
	return &recordWriter{enc: xml.NewEncoder(w)}
}

// NewReader returns a reader over one XML document.
func (c *xmlCodec) NewReader(data []byte) bitwire.RecordReader {
	return &documentReader{data: data}
}

// Encode writes v as the element start. Flag types use it to implement
// xml.Marshaler:
//
//	func (p Perm) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
//	    return bitxml.Encode[uint32](e, start, p)
//	}
func Encode[B bitwire.Bits](enc *xml.Encoder, start xml.StartElement, v bitwire.Flags[B]) error {
	return bitwire.Encode(&recordWriter{enc: enc, start: &start, nested: true}, v)
}

// Decode reads the record opened by start, whose tag was just read from
// dec. Attributes of start are fields of the record. Flag types use it to
// implement xml.Unmarshaler:
//
//	func (p *Perm) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
//	    v, err := bitxml.Decode[Perm, uint32](d, start)
//	    ...
//	}
func Decode[T bitwire.Retainer[T, B], B bitwire.Bits](dec *xml.Decoder, start xml.StartElement) (T, error) {
	return bitwire.Decode[T, B](&elementReader{dec: dec, start: start})
}

// recordWriter writes a record element with one child per field.
type recordWriter struct {
	enc    *xml.Encoder
	start  *xml.StartElement
	nested bool
}

func (rw *recordWriter) BeginRecord(name string, _ int) error {
	if rw.start == nil {
		rw.start = &xml.StartElement{Name: xml.Name{Local: elementName(name)}}
	}
	return rw.enc.EncodeToken(*rw.start)
}

func (rw *recordWriter) WriteField(name string, value any) error {
	if rw.start == nil {
		return fmt.Errorf("xml: field %q written outside a record", name)
	}
	return rw.enc.EncodeElement(value, xml.StartElement{Name: xml.Name{Local: name}})
}

func (rw *recordWriter) EndRecord() error {
	if rw.start == nil {
		return errors.New("xml: no open record")
	}
	if err := rw.enc.EncodeToken(rw.start.End()); err != nil {
		return err
	}
	if rw.nested {
		return nil
	}
	return rw.enc.Flush()
}

// elementName turns a Go type name such as "pkg.Perm[uint32]" into "Perm".
func elementName(label string) string {
	if i := strings.IndexByte(label, '['); i >= 0 {
		label = label[:i]
	}
	if i := strings.LastIndexByte(label, '.'); i >= 0 {
		label = label[i+1:]
	}
	label = strings.TrimLeft(label, "*")
	if label == "" {
		return defaultElement
	}
	return label
}

// elementReader reads the attributes and children of an element whose
// start tag has already been consumed.
type elementReader struct {
	dec   *xml.Decoder
	start xml.StartElement
}

func (er *elementReader) ReadRecord(_ string, _ []string, visitor bitwire.FieldVisitor) error {
	for _, attr := range er.start.Attr {
		if isNamespaceDecl(attr.Name) {
			continue
		}
		if err := visitor.VisitField(attr.Name.Local, &attrDecoder{attr: attr}); err != nil {
			return err
		}
	}

	for {
		tok, err := er.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			value := &valueDecoder{dec: er.dec, start: t}
			if err := visitor.VisitField(t.Name.Local, value); err != nil {
				return err
			}
			if !value.used {
				if err := er.dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return visitor.End()
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return &bitwire.TypeError{Found: "text", Expected: visitor.Expecting()}
			}
		}
	}
}

// documentReader locates the root element of a document and reads it as a
// record. Only whitespace, comments and processing instructions may
// surround the root.
type documentReader struct {
	data []byte
}

func (dr *documentReader) ReadRecord(name string, fields []string, visitor bitwire.FieldVisitor) error {
	dec := xml.NewDecoder(bytes.NewReader(dr.data))

	var root *xml.StartElement
	for root == nil {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return &bitwire.TypeError{Found: "empty document", Expected: visitor.Expecting()}
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			root = &t
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return &bitwire.TypeError{Found: "text", Expected: visitor.Expecting()}
			}
		}
	}

	if err := (&elementReader{dec: dec, start: *root}).ReadRecord(name, fields, visitor); err != nil {
		return err
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return errors.New("xml: trailing element after record")
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return errors.New("xml: trailing text after record")
			}
		}
	}
}

// valueDecoder decodes the content of a field element. The content must
// be text only.
type valueDecoder struct {
	dec   *xml.Decoder
	start xml.StartElement
	used  bool
}

func (d *valueDecoder) Decode(v any) error {
	if d.used {
		return errors.New("xml: field value already decoded")
	}
	d.used = true

	field := d.start.Name.Local
	for _, attr := range d.start.Attr {
		if !isNamespaceDecl(attr.Name) {
			return fmt.Errorf("xml: field %q has attribute %q", field, attr.Name.Local)
		}
	}

	var text []byte
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text = append(text, t...)
		case xml.StartElement:
			return fmt.Errorf("xml: field %q contains element %q", field, t.Name.Local)
		case xml.EndElement:
			return decodeText(field, string(text), v)
		}
	}
}

// attrDecoder decodes an attribute value as a field.
type attrDecoder struct {
	attr xml.Attr
}

func (d *attrDecoder) Decode(v any) error {
	return decodeText(d.attr.Name.Local, d.attr.Value, v)
}

// decodeText decodes text into v with the same rules encoding/xml applies
// to element content.
func decodeText(field, text string, v any) error {
	name := xml.Name{Local: field}
	tokens := tokenList{
		xml.StartElement{Name: name},
		xml.CharData(text),
		xml.EndElement{Name: name},
	}
	return xml.NewTokenDecoder(&tokens).Decode(v)
}

// tokenList replays a fixed token sequence.
type tokenList []xml.Token

func (l *tokenList) Token() (xml.Token, error) {
	if len(*l) == 0 {
		return nil, io.EOF
	}
	tok := (*l)[0]
	*l = (*l)[1:]
	return tok, nil
}

// isNamespaceDecl reports whether an attribute declares a namespace.
func isNamespaceDecl(name xml.Name) bool {
	return name.Space == "xmlns" || (name.Space == "" && name.Local == "xmlns")
}
