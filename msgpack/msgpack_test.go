package msgpack

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zoobzio/bitwire"
	bitwiretest "github.com/zoobzio/bitwire/testing"
)

func TestNew(t *testing.T) {
	c := New()
	if c == nil {
		t.Error("New() should return non-nil codec")
	}
}

func TestContentType(t *testing.T) {
	c := New()
	if c.ContentType() != "application/msgpack" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/msgpack")
	}
}

func TestMarshalBinary(t *testing.T) {
	data, err := bitwire.Marshal[uint32](New(), bitwiretest.A|bitwiretest.B)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	// fixmap with one entry
	if data[0] != 0x81 {
		t.Errorf("Marshal() first byte = %#x, want 0x81", data[0])
	}

	var generic map[string]uint32
	if err := msgpack.Unmarshal(data, &generic); err != nil {
		t.Fatalf("msgpack.Unmarshal error: %v", err)
	}
	if len(generic) != 1 || generic["bits"] != 3 {
		t.Errorf("decoded map = %v, want map[bits:3]", generic)
	}
}

func TestRoundTrip(t *testing.T) {
	c := New()
	for _, s := range bitwiretest.Samples() {
		bitwiretest.RoundTrip[bitwiretest.Flags, uint32](t, c, s)
	}
	bitwiretest.RoundTrip[bitwiretest.Small, uint8](t, c, 0xFF)
	bitwiretest.RoundTrip[bitwiretest.Wide, uint64](t, c, 1<<64-1)
}

// record builds a msgpack map from alternating keys and values.
func record(t *testing.T, pairs ...any) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeMapLen(len(pairs) / 2); err != nil {
		t.Fatal(err)
	}
	for _, p := range pairs {
		if err := enc.Encode(p); err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func TestUnmarshal_StructuralErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		sentinel error
	}{
		{"duplicate", record(t, "bits", 3, "bits", 3), bitwire.ErrDuplicateField},
		{"unknown", record(t, "flags", 3), bitwire.ErrUnknownField},
		{"unknown after bits", record(t, "bits", 3, "extra", []int{1, 2}), bitwire.ErrUnknownField},
		{"missing", record(t), bitwire.ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bitwire.Unmarshal[bitwiretest.Flags, uint32](New(), tt.input)
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("Unmarshal() error = %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestUnmarshal_NotARecord(t *testing.T) {
	tests := []struct {
		name  string
		value any
		found string
	}{
		{"number", 3, "number"},
		{"nil", nil, "nil"},
		{"array", []uint32{3}, "array"},
		{"string", "bits", "string"},
		{"boolean", true, "boolean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := msgpack.Marshal(tt.value)
			if err != nil {
				t.Fatalf("msgpack.Marshal error: %v", err)
			}
			_, err = bitwire.Unmarshal[bitwiretest.Flags, uint32](New(), data)
			var typeErr *bitwire.TypeError
			if !errors.As(err, &typeErr) {
				t.Fatalf("Unmarshal() error = %v, want *TypeError", err)
			}
			if typeErr.Found != tt.found {
				t.Errorf("TypeError.Found = %q, want %q", typeErr.Found, tt.found)
			}
		})
	}
}

func TestUnmarshal_TransportErrors(t *testing.T) {
	good := record(t, "bits", 3)

	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"truncated", good[:len(good)-1]},
		{"trailing data", append(append([]byte{}, good...), 0x01)},
		{"string value", record(t, "bits", "3")},
		{"non-string key", record(t, 1, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bitwire.Unmarshal[bitwiretest.Flags, uint32](New(), tt.input)
			if err == nil {
				t.Fatal("Unmarshal() should return error")
			}
			var fieldErr *bitwire.FieldError
			if errors.As(err, &fieldErr) {
				t.Errorf("Unmarshal() error = %v, want transport error", err)
			}
		})
	}
}

func TestEncodeDecode_Stream(t *testing.T) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	for _, s := range bitwiretest.Samples() {
		if err := Encode[uint32](enc, s); err != nil {
			t.Fatalf("Encode(%#x) error: %v", uint32(s), err)
		}
	}

	dec := msgpack.NewDecoder(&buf)
	for _, want := range bitwiretest.Samples() {
		got, err := Decode[bitwiretest.Flags, uint32](dec)
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		if got != want {
			t.Errorf("Decode() = %#x, want %#x", uint32(got), uint32(want))
		}
	}
}

func TestUnmarshal_SkipsUnreadValue(t *testing.T) {
	data := record(t, "a", map[string]any{"x": []int{1, 2}}, "b", 1)
	v := &namesVisitor{}

	if err := New().NewReader(data).ReadRecord("", nil, v); err != nil {
		t.Fatalf("ReadRecord() error: %v", err)
	}
	if len(v.names) != 2 || v.names[0] != "a" || v.names[1] != "b" {
		t.Errorf("visited %v, want [a b]", v.names)
	}
}

// namesVisitor records field names without reading values.
type namesVisitor struct {
	names []string
}

func (v *namesVisitor) Expecting() string { return "anything" }

func (v *namesVisitor) VisitField(name string, _ bitwire.ValueDecoder) error {
	v.names = append(v.names, name)
	return nil
}

func (v *namesVisitor) End() error { return nil }
