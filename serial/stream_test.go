package serial_test

import (
	"bytes"
	"testing"

	"github.com/forge-engine/forge/serial"
)

func TestBinaryStreamNumericRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	s := serial.NewBinaryStream(&buf)

	if err := serial.WriteNumeric(s, uint32(0xCAFEBABE)); err != nil {
		t.Fatal(err)
	}
	if err := serial.WriteNumeric(s, float32(3.5)); err != nil {
		t.Fatal(err)
	}

	got, err := serial.ReadNumeric[uint32](s)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xCAFEBABE {
		t.Fatalf("got %x, want %x", got, 0xCAFEBABE)
	}
	gotF, err := serial.ReadNumeric[float32](s)
	if err != nil {
		t.Fatal(err)
	}
	if gotF != 3.5 {
		t.Fatalf("got %v, want %v", gotF, 3.5)
	}
}

func TestBinaryStreamStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	s := serial.NewBinaryStream(&buf)

	if err := serial.WriteString(s, "forge-asset"); err != nil {
		t.Fatal(err)
	}
	got, err := serial.ReadString(s)
	if err != nil {
		t.Fatal(err)
	}
	if got != "forge-asset" {
		t.Fatalf("got %q, want %q", got, "forge-asset")
	}
}

func TestBinaryStreamBoolRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	s := serial.NewBinaryStream(&buf)

	if err := serial.WriteBool(s, true); err != nil {
		t.Fatal(err)
	}
	if err := serial.WriteBool(s, false); err != nil {
		t.Fatal(err)
	}
	a, err := serial.ReadBool(s)
	if err != nil {
		t.Fatal(err)
	}
	b, err := serial.ReadBool(s)
	if err != nil {
		t.Fatal(err)
	}
	if !a || b {
		t.Fatalf("got %v, %v; want true, false", a, b)
	}
}

func TestBinaryStreamBytesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	s := serial.NewBinaryStream(&buf)

	payload := []byte{1, 2, 3, 4, 5}
	if err := serial.WriteBytes(s, payload); err != nil {
		t.Fatal(err)
	}
	got, err := serial.ReadBytes(s)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %v, want %v", got, payload)
	}
}
