// Package yaml provides a YAML record codec.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/zoobzio/bitwire"
	"gopkg.in/yaml.v3"
)

// yamlCodec implements bitwire.Codec for YAML.
type yamlCodec struct{}

// New returns a YAML codec.
func New() bitwire.Codec {
	return &yamlCodec{}
}

// ContentType returns the MIME type for YAML.
func (c *yamlCodec) ContentType() string {
	return "application/yaml"
}

// NewWriter returns a writer that emits one YAML document to w.
func (c *yamlCodec) NewWriter(w io.Writer) bitwire.RecordWriter {
	return &recordWriter{w: w}
}

// NewReader returns a reader over one YAML document.
func (c *yamlCodec) NewReader(data []byte) bitwire.RecordReader {
	return &recordReader{data: data}
}

// EncodeNode encodes v as a mapping node. Flag types use it to implement
// yaml.Marshaler:
//
//	func (p Perm) MarshalYAML() (any, error) { return yaml.EncodeNode[uint32](p) }
func EncodeNode[B bitwire.Bits](v bitwire.Flags[B]) (*yaml.Node, error) {
	rw := &recordWriter{}
	if err := bitwire.Encode(rw, v); err != nil {
		return nil, err
	}
	return rw.node, nil
}

// DecodeNode decodes a mapping node. Flag types use it to implement
// yaml.Unmarshaler.
func DecodeNode[T bitwire.Retainer[T, B], B bitwire.Bits](node *yaml.Node) (T, error) {
	return bitwire.Decode[T, B](&recordReader{node: node})
}

// recordWriter builds a mapping node. When w is set the node is written
// as a document on EndRecord.
type recordWriter struct {
	w    io.Writer
	node *yaml.Node
}

func (rw *recordWriter) BeginRecord(_ string, fields int) error {
	if rw.node != nil {
		return errors.New("yaml: record already open")
	}
	rw.node = &yaml.Node{
		Kind:    yaml.MappingNode,
		Tag:     "!!map",
		Content: make([]*yaml.Node, 0, 2*fields),
	}
	return nil
}

func (rw *recordWriter) WriteField(name string, value any) error {
	if rw.node == nil {
		return fmt.Errorf("yaml: field %q written outside a record", name)
	}
	var val yaml.Node
	if err := val.Encode(value); err != nil {
		return err
	}
	key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
	rw.node.Content = append(rw.node.Content, key, &val)
	return nil
}

func (rw *recordWriter) EndRecord() error {
	if rw.node == nil {
		return errors.New("yaml: no open record")
	}
	if rw.w == nil {
		return nil
	}
	enc := yaml.NewEncoder(rw.w)
	if err := enc.Encode(rw.node); err != nil {
		return err
	}
	return enc.Close()
}

// recordReader walks a mapping node, parsing data first when no node is set.
type recordReader struct {
	data []byte
	node *yaml.Node
}

func (rr *recordReader) ReadRecord(_ string, _ []string, visitor bitwire.FieldVisitor) error {
	node := rr.node
	if node == nil {
		var err error
		if node, err = readDocument(rr.data); err != nil {
			return err
		}
	}

	node = resolve(node)
	if node.Kind != yaml.MappingNode {
		return &bitwire.TypeError{Found: describe(node), Expected: visitor.Expecting()}
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := resolve(node.Content[i]), node.Content[i+1]
		if err := visitor.VisitField(key.Value, &valueDecoder{node: value}); err != nil {
			return err
		}
	}
	return visitor.End()
}

// readDocument parses data as exactly one YAML document. Empty input
// yields an empty node.
func readDocument(data []byte) (*yaml.Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	node := &yaml.Node{}
	if err := dec.Decode(node); err != nil {
		if errors.Is(err, io.EOF) {
			return node, nil
		}
		return nil, err
	}

	var next yaml.Node
	switch err := dec.Decode(&next); {
	case errors.Is(err, io.EOF):
		return node, nil
	case err != nil:
		return nil, err
	}
	return nil, errors.New("yaml: trailing document after record")
}

// resolve unwraps single-document nodes and aliases.
func resolve(node *yaml.Node) *yaml.Node {
	for {
		switch {
		case node.Kind == yaml.DocumentNode && len(node.Content) == 1:
			node = node.Content[0]
		case node.Kind == yaml.AliasNode && node.Alias != nil:
			node = node.Alias
		default:
			return node
		}
	}
}

// valueDecoder decodes a field value node.
type valueDecoder struct {
	node *yaml.Node
}

func (d *valueDecoder) Decode(v any) error {
	return d.node.Decode(v)
}

// describe names the YAML kind of a node for diagnostics.
func describe(node *yaml.Node) string {
	switch node.Kind {
	case yaml.DocumentNode, 0:
		return "empty document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return "null"
		}
		return fmt.Sprintf("scalar %q", node.Value)
	}
	return "unknown node"
}
