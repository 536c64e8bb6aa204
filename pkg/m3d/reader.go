package m3d

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrVersion marks a stream whose magic version does not match
	// MAGIC_VERSION. Assets from other format revisions are incompatible.
	ErrVersion = errors.New("unsupported m3d version")
	// ErrTruncated marks a short read anywhere in the stream.
	ErrTruncated = errors.New("truncated m3d stream")
	// ErrPolygonArity marks a polygon that is neither a triangle nor a quad.
	ErrPolygonArity = errors.New("polygon corner count out of range")
	// ErrIntegrity marks an internal reference outside its table.
	ErrIntegrity = errors.New("m3d structural mismatch")
)

// reader tracks the absolute stream offset so decode errors can point at
// the exact spot in the file.
type reader struct {
	src io.Reader
	off int64
}

func (r *reader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	r.off += int64(n)
	return n, err
}

func (r *reader) read(v any) error {
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("offset %d: %w", r.off, ErrTruncated)
		}
		return fmt.Errorf("offset %d: %w", r.off, err)
	}
	return nil
}

func (r *reader) discard(n int64) error {
	written, err := io.CopyN(io.Discard, r, n)
	if err != nil {
		return fmt.Errorf("offset %d: skipping %d bytes: %w", r.off, n-written, ErrTruncated)
	}
	return nil
}
