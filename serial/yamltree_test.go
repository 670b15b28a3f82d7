package serial_test

import (
	"testing"

	"github.com/forge-engine/forge/serial"
)

func TestYAMLTreeScalarRoundTrip(t *testing.T) {
	tr := serial.NewYAMLTree()
	if err := tr.WriteValue("hello"); err != nil {
		t.Fatal(err)
	}
	data, err := tr.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	tr2, err := serial.ParseYAMLTree(data)
	if err != nil {
		t.Fatal(err)
	}
	var s string
	if err := tr2.ReadValue(&s); err != nil {
		t.Fatal(err)
	}
	if s != "hello" {
		t.Fatalf("got %q, want %q", s, "hello")
	}
}

func TestYAMLTreeMapRoundTrip(t *testing.T) {
	tr := serial.NewYAMLTree()
	tr.AsMap()

	if err := tr.AppendChild(); err != nil {
		t.Fatal(err)
	}
	if err := tr.WriteKey("name"); err != nil {
		t.Fatal(err)
	}
	if err := tr.WriteValue("texture.png"); err != nil {
		t.Fatal(err)
	}
	tr.Pop()

	if err := tr.AppendChild(); err != nil {
		t.Fatal(err)
	}
	if err := tr.WriteKey("size"); err != nil {
		t.Fatal(err)
	}
	if err := tr.WriteValue(int64(4096)); err != nil {
		t.Fatal(err)
	}
	tr.Pop()

	data, err := tr.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	tr2, err := serial.ParseYAMLTree(data)
	if err != nil {
		t.Fatal(err)
	}
	if !tr2.HasChild("name") || !tr2.HasChild("size") {
		t.Fatal("expected both children to round-trip")
	}
	if err := tr2.FindChild("name"); err != nil {
		t.Fatal(err)
	}
	var name string
	if err := tr2.ReadValue(&name); err != nil {
		t.Fatal(err)
	}
	if name != "texture.png" {
		t.Fatalf("got %q, want %q", name, "texture.png")
	}
	tr2.Pop()

	if err := tr2.FindChild("size"); err != nil {
		t.Fatal(err)
	}
	var size int64
	if err := tr2.ReadValue(&size); err != nil {
		t.Fatal(err)
	}
	if size != 4096 {
		t.Fatalf("got %d, want %d", size, 4096)
	}
	tr2.Pop()

	if tr2.HasChild("missing") {
		t.Fatal("HasChild: expected false for absent key")
	}
	if err := tr2.FindChild("missing"); err != serial.ErrNoChild {
		t.Fatalf("FindChild: got %v, want ErrNoChild", err)
	}
}

func TestYAMLTreeListRoundTrip(t *testing.T) {
	values := []int64{1, 2, 3}

	tr := serial.NewYAMLTree()
	tr.AsList(len(values))
	for _, v := range values {
		if err := tr.AppendChild(); err != nil {
			t.Fatal(err)
		}
		if err := tr.WriteValue(v); err != nil {
			t.Fatal(err)
		}
		tr.Pop()
	}

	data, err := tr.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	tr2, err := serial.ParseYAMLTree(data)
	if err != nil {
		t.Fatal(err)
	}
	if tr2.NumChildren() != len(values) {
		t.Fatalf("NumChildren: got %d, want %d", tr2.NumChildren(), len(values))
	}

	var got []int64
	tr2.FindFirstChild()
	for tr2.IsValid() {
		var v int64
		if err := tr2.ReadValue(&v); err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
		tr2.NextSibling()
	}
	if len(got) != len(values) {
		t.Fatalf("got %v, want %v", got, values)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("got %v, want %v", got, values)
		}
	}
}

func TestYAMLTreeIsEmpty(t *testing.T) {
	tr := serial.NewYAMLTree()
	if !tr.IsEmpty() {
		t.Fatal("expected a freshly-created tree to be empty")
	}
	tr.WriteValue(int64(1))
	if tr.IsEmpty() {
		t.Fatal("expected a written scalar node to not be empty")
	}
}
