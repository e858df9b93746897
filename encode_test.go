package bitwire_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zoobzio/bitwire"
	"github.com/zoobzio/bitwire/json"
	bitwiretest "github.com/zoobzio/bitwire/testing"
)

func TestEncode_Record(t *testing.T) {
	rec := &bitwiretest.Recorder{}

	if err := bitwire.Encode[uint32](rec, bitwiretest.A|bitwiretest.B); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	want := &bitwiretest.Recorder{
		Name:   "testing.Flags",
		Count:  1,
		Fields: []bitwiretest.Field{{Name: "bits", Value: uint32(3)}},
		Ended:  true,
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("Encode() record mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_UnknownBitsUnmasked(t *testing.T) {
	for _, s := range bitwiretest.Samples() {
		rec := &bitwiretest.Recorder{}
		if err := bitwire.Encode[uint32](rec, s); err != nil {
			t.Fatalf("Encode(%#x) error: %v", uint32(s), err)
		}
		if got := rec.Fields[0].Value; got != uint32(s) {
			t.Errorf("Encode(%#x) wrote %v", uint32(s), got)
		}
	}
}

func TestEncode_WriterErrorPassesThrough(t *testing.T) {
	writeErr := errors.New("disk full")
	rec := &bitwiretest.Recorder{Err: writeErr}

	err := bitwire.Encode[uint32](rec, bitwiretest.A)
	if err != writeErr {
		t.Errorf("Encode() error = %v, want writer error unchanged", err)
	}
	if rec.Ended {
		t.Error("EndRecord() should not be called after a failed field")
	}
}

func TestEncode_Widths(t *testing.T) {
	small := &bitwiretest.Recorder{}
	if err := bitwire.Encode[uint8](small, bitwiretest.Small(0x81)); err != nil {
		t.Fatalf("Encode[Small]() error: %v", err)
	}
	if got := small.Fields[0].Value; got != uint8(0x81) {
		t.Errorf("Encode[Small]() wrote %v (%T), want uint8 0x81", got, got)
	}

	wide := &bitwiretest.Recorder{}
	if err := bitwire.Encode[uint64](wide, bitwiretest.Wide(1<<63)); err != nil {
		t.Fatalf("Encode[Wide]() error: %v", err)
	}
	if got := wide.Fields[0].Value; got != uint64(1<<63) {
		t.Errorf("Encode[Wide]() wrote %v (%T), want uint64 1<<63", got, got)
	}
}

func TestMarshalUnmarshal_ConcreteScenario(t *testing.T) {
	data, err := bitwire.Marshal[uint32](json.New(), bitwiretest.A|bitwiretest.B)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != `{"bits":3}` {
		t.Errorf("Marshal() = %s, want %s", data, `{"bits":3}`)
	}

	got, err := bitwire.Unmarshal[bitwiretest.Flags, uint32](json.New(), data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got != bitwiretest.A|bitwiretest.B {
		t.Errorf("Unmarshal() = %#x, want A|B", uint32(got))
	}
}

func TestRoundTrip_AllWidths(t *testing.T) {
	c := json.New()
	for _, s := range bitwiretest.Samples() {
		bitwiretest.RoundTrip[bitwiretest.Flags, uint32](t, c, s)
	}
	for _, s := range []bitwiretest.Small{0, 1, 0x80, 0xFF} {
		bitwiretest.RoundTrip[bitwiretest.Small, uint8](t, c, s)
	}
	for _, w := range []bitwiretest.Wide{0, 1, 1 << 40, 1<<64 - 1} {
		bitwiretest.RoundTrip[bitwiretest.Wide, uint64](t, c, w)
	}
}
