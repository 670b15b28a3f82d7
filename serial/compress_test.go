package serial_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/forge-engine/forge/serial"
)

func TestCompressedRegionRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	s := serial.NewBinaryStream(&buf)

	payload := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog ", 64))
	if err := serial.WriteCompressedRegion(s, payload); err != nil {
		t.Fatal(err)
	}
	got, err := serial.ReadCompressedRegion(s)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("serial.ReadCompressedRegion: payload mismatch")
	}
}

func TestCompressedRegionEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	s := serial.NewBinaryStream(&buf)

	if err := serial.WriteCompressedRegion(s, nil); err != nil {
		t.Fatal(err)
	}
	got, err := serial.ReadCompressedRegion(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d bytes, want 0", len(got))
	}
}

func TestCompressedRegionSequentialUint32(t *testing.T) {
	var buf bytes.Buffer
	s := serial.NewBinaryStream(&buf)

	const n = 10_000
	region := serial.BeginCompressedRegion(s)
	for i := uint32(0); i < n; i++ {
		if err := serial.WriteNumeric(region, i); err != nil {
			t.Fatal(err)
		}
	}
	if err := region.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := serial.OpenCompressedRegion(s)
	if err != nil {
		t.Fatal(err)
	}
	for i := uint32(0); i < n; i++ {
		got, err := serial.ReadNumeric[uint32](r)
		if err != nil {
			t.Fatalf("reading element %d: %v", i, err)
		}
		if got != i {
			t.Fatalf("element %d: got %d, want %d", i, got, i)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCompressedRegionNestingOnlyOutermostFlushes(t *testing.T) {
	var buf bytes.Buffer
	s := serial.NewBinaryStream(&buf)

	outer := serial.BeginCompressedRegion(s)
	if err := serial.WriteString(outer, "outer-prefix"); err != nil {
		t.Fatal(err)
	}

	inner := serial.BeginCompressedRegion(outer)
	if inner != outer {
		t.Fatal("nested BeginCompressedRegion must return the same region, not a new one")
	}
	if err := serial.WriteString(inner, "inner-payload"); err != nil {
		t.Fatal(err)
	}
	if err := inner.Close(); err != nil {
		t.Fatal(err)
	}

	// The inner Close must not have flushed anything: the stream
	// should still be empty until the outer region closes.
	if buf.Len() != 0 {
		t.Fatalf("inner Close flushed %d bytes, want 0 (only the outermost region flushes)", buf.Len())
	}

	if err := serial.WriteString(outer, "outer-suffix"); err != nil {
		t.Fatal(err)
	}
	if err := outer.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("outer Close did not flush any bytes")
	}

	r, err := serial.OpenCompressedRegion(s)
	if err != nil {
		t.Fatal(err)
	}
	first, err := serial.ReadString(r)
	if err != nil {
		t.Fatal(err)
	}
	if first != "outer-prefix" {
		t.Fatalf("got %q, want %q", first, "outer-prefix")
	}
	second, err := serial.ReadString(r)
	if err != nil {
		t.Fatal(err)
	}
	if second != "inner-payload" {
		t.Fatalf("got %q, want %q", second, "inner-payload")
	}
	third, err := serial.ReadString(r)
	if err != nil {
		t.Fatal(err)
	}
	if third != "outer-suffix" {
		t.Fatalf("got %q, want %q", third, "outer-suffix")
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}
