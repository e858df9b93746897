package bitwire

import "bytes"

// Encode writes v as a record with a single bits field.
//
// The raw value is written as returned by v.Bits(), unknown bits included.
// Errors raised by w are returned unchanged.
func Encode[B Bits](w RecordWriter, v Flags[B]) error {
	if err := w.BeginRecord(typeNameOf(v), len(recordFields)); err != nil {
		return err
	}
	if err := w.WriteField(FieldBits, v.Bits()); err != nil {
		return err
	}
	return w.EndRecord()
}

// Marshal encodes v with codec and returns the encoded record.
func Marshal[B Bits](codec Codec, v Flags[B]) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(codec.NewWriter(&buf), v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
