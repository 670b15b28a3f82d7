package serial

import (
	"encoding/binary"
	"io"
)

// Stream is a flat binary serialization sink/source - the
// encoding used for artifact payloads and the asset database.
// Nested structures are serialized by recursive calls into the
// same Stream, exactly as the tree format is, but with no
// navigable cursor: writers and readers must agree on field
// order out of band.
type Stream interface {
	io.Writer
	io.Reader
}

// BinaryStream implements Stream over an io.ReadWriter using
// little-endian, native-width encoding, matching this module's
// wire format notes for artifact payloads and the asset database.
type BinaryStream struct {
	rw io.ReadWriter
}

// NewBinaryStream wraps rw as a Stream.
func NewBinaryStream(rw io.ReadWriter) *BinaryStream {
	return &BinaryStream{rw: rw}
}

// NewReaderStream wraps a read-only source as a Stream. Writes
// fail; use this for decoding an already-fetched byte buffer.
func NewReaderStream(r io.Reader) *BinaryStream {
	return &BinaryStream{rw: readOnlyRW{r}}
}

// NewWriterStream wraps a write-only sink as a Stream. Reads fail;
// use this for encoding into an output buffer.
func NewWriterStream(w io.Writer) *BinaryStream {
	return &BinaryStream{rw: writeOnlyRW{w}}
}

type readOnlyRW struct{ io.Reader }

func (readOnlyRW) Write(p []byte) (int, error) {
	return 0, io.ErrClosedPipe
}

type writeOnlyRW struct{ io.Writer }

func (writeOnlyRW) Read(p []byte) (int, error) {
	return 0, io.EOF
}

func (s *BinaryStream) Write(p []byte) (int, error) { return s.rw.Write(p) }
func (s *BinaryStream) Read(p []byte) (int, error)  { return s.rw.Read(p) }

// Numeric constrains the types WriteNumeric/ReadNumeric accept:
// everything encoding/binary can lay out with a fixed width.
type Numeric interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// WriteNumeric writes a fixed-width little-endian value.
func WriteNumeric[T Numeric](s Stream, v T) error {
	return binary.Write(s, binary.LittleEndian, v)
}

// ReadNumeric reads a fixed-width little-endian value.
func ReadNumeric[T Numeric](s Stream) (T, error) {
	var v T
	err := binary.Read(s, binary.LittleEndian, &v)
	return v, err
}

// WriteBool writes a single-byte boolean.
func WriteBool(s Stream, v bool) error {
	var b byte
	if v {
		b = 1
	}
	_, err := s.Write([]byte{b})
	return err
}

// ReadBool reads a single-byte boolean.
func ReadBool(s Stream) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(s, b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// WriteString writes a length-prefixed UTF-8 string: a uint64
// byte count followed by the raw bytes.
func WriteString(s Stream, v string) error {
	if err := WriteNumeric(s, uint64(len(v))); err != nil {
		return err
	}
	_, err := io.WriteString(s, v)
	return err
}

// ReadString reads a string written by WriteString.
func ReadString(s Stream) (string, error) {
	n, err := ReadNumeric[uint64](s)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteBytes writes a length-prefixed byte slice.
func WriteBytes(s Stream, v []byte) error {
	if err := WriteNumeric(s, uint64(len(v))); err != nil {
		return err
	}
	_, err := s.Write(v)
	return err
}

// ReadBytes reads a byte slice written by WriteBytes.
func ReadBytes(s Stream) ([]byte, error) {
	n, err := ReadNumeric[uint64](s)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

var _ Stream = (*BinaryStream)(nil)
