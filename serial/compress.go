package serial

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// CompressedRegion wraps a Stream as a nested compressed region: data
// written while the region is open is buffered in memory, and on
// Close written to the wrapped Stream as a little-endian
// [source_size int32, compressed_size int32, compressed_bytes]
// header. Reading mirrors this - Open reads the header, decompresses
// into a scratch buffer, and serves subsequent reads from it.
//
// Regions nest: calling BeginCompressedRegion/OpenCompressedRegion
// with a Stream that is already a *CompressedRegion returns the same
// region with its depth incremented, and the matching Close merely
// decrements it. Only the outermost Close actually compresses and
// flushes (or, when reading, the outermost Open actually
// decompresses) - an inner Begin/Close pair shares the outer region's
// buffer and produces no header of its own.
type CompressedRegion struct {
	parent Stream
	depth  int

	// write-side state
	buf *bytes.Buffer

	// read-side state
	reader *bytes.Reader
}

// BeginCompressedRegion opens a compressed region for writing.
// Subsequent WriteNumeric/WriteBytes/... calls against the returned
// Stream buffer their data until the matching Close.
func BeginCompressedRegion(s Stream) *CompressedRegion {
	if r, ok := s.(*CompressedRegion); ok {
		r.depth++
		return r
	}
	return &CompressedRegion{parent: s, depth: 1, buf: new(bytes.Buffer)}
}

// Write implements Stream, buffering into the region pending flush.
func (r *CompressedRegion) Write(p []byte) (int, error) {
	if r.buf == nil {
		return 0, fmt.Errorf("serial: compressed region: not open for writing")
	}
	return r.buf.Write(p)
}

// Close closes one level of nesting. Only the outermost Close
// compresses the accumulated bytes and writes the region's header and
// payload to the wrapped Stream; an inner Close is a no-op beyond
// decrementing the depth counter. Closing the outermost level of a
// region opened for reading releases its decompressed buffer.
func (r *CompressedRegion) Close() error {
	r.depth--
	if r.depth > 0 {
		return nil
	}
	if r.reader != nil {
		r.reader = nil
		return nil
	}
	if r.buf == nil {
		return fmt.Errorf("serial: compressed region: not open for writing")
	}

	payload := r.buf.Bytes()
	var compressed bytes.Buffer
	w := lz4.NewWriter(&compressed)
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("serial: compress region: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("serial: compress region: %w", err)
	}

	if err := WriteNumeric(r.parent, int32(len(payload))); err != nil {
		return err
	}
	if err := WriteNumeric(r.parent, int32(compressed.Len())); err != nil {
		return err
	}
	_, err := r.parent.Write(compressed.Bytes())
	return err
}

// OpenCompressedRegion opens a compressed region for reading,
// decompressing its full payload up front and serving subsequent
// Read calls from the decompressed buffer.
func OpenCompressedRegion(s Stream) (*CompressedRegion, error) {
	if r, ok := s.(*CompressedRegion); ok {
		r.depth++
		return r, nil
	}

	sourceSize, err := ReadNumeric[int32](s)
	if err != nil {
		return nil, err
	}
	compressedSize, err := ReadNumeric[int32](s)
	if err != nil {
		return nil, err
	}
	compressed := make([]byte, compressedSize)
	if _, err := io.ReadFull(s, compressed); err != nil {
		return nil, err
	}
	out := make([]byte, sourceSize)
	lr := lz4.NewReader(bytes.NewReader(compressed))
	if _, err := io.ReadFull(lr, out); err != nil {
		return nil, fmt.Errorf("serial: decompress region: %w", err)
	}
	return &CompressedRegion{parent: s, depth: 1, reader: bytes.NewReader(out)}, nil
}

// Read implements Stream, serving bytes from the region's
// already-decompressed payload.
func (r *CompressedRegion) Read(p []byte) (int, error) {
	if r.reader == nil {
		return 0, fmt.Errorf("serial: compressed region: not open for reading")
	}
	return r.reader.Read(p)
}

var _ Stream = (*CompressedRegion)(nil)

// WriteCompressedRegion is a convenience wrapper around
// BeginCompressedRegion/Close for the common case of compressing a
// single pre-assembled payload in one call.
func WriteCompressedRegion(s Stream, payload []byte) error {
	r := BeginCompressedRegion(s)
	if _, err := r.Write(payload); err != nil {
		return err
	}
	return r.Close()
}

// ReadCompressedRegion is a convenience wrapper around
// OpenCompressedRegion/Close that reads a region's entire
// decompressed payload in one call.
func ReadCompressedRegion(s Stream) ([]byte, error) {
	r, err := OpenCompressedRegion(s)
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return out, r.Close()
}
