package bitwire

import "io"

// Codec provides content-type aware record encoding.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// NewWriter returns a RecordWriter that writes one record to w.
	NewWriter(w io.Writer) RecordWriter

	// NewReader returns a RecordReader over a single encoded record.
	NewReader(data []byte) RecordReader
}

// RecordWriter emits a structured record.
//
// Writers may buffer until EndRecord. Errors are specific to the wire format
// and are returned to the caller unchanged.
type RecordWriter interface {
	// BeginRecord opens a record with a diagnostic label and a field count.
	BeginRecord(name string, fields int) error

	// WriteField writes a named field using the format's native encoding of value.
	WriteField(name string, value any) error

	// EndRecord closes the record.
	EndRecord() error
}

// RecordReader drives a FieldVisitor over a structured record.
type RecordReader interface {
	// ReadRecord calls visitor.VisitField once per field in input order and
	// visitor.End at the end of the record. It returns the first error raised
	// by either the input or the visitor. Input that is not a record fails
	// with a *TypeError built from visitor.Expecting.
	//
	// name and fields are hints; readers must not reject input based on them.
	ReadRecord(name string, fields []string, visitor FieldVisitor) error
}

// FieldVisitor receives the fields of a record one at a time.
type FieldVisitor interface {
	// Expecting describes the accepted input for diagnostics.
	Expecting() string

	// VisitField handles one field. The value may be read through value at
	// most once; readers skip it when the visitor does not.
	VisitField(name string, value ValueDecoder) error

	// End is called after the last field.
	End() error
}

// ValueDecoder reads the value of the field being visited.
type ValueDecoder interface {
	// Decode stores the field value in the value pointed to by v.
	Decode(v any) error
}
