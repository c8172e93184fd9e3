// Package bzip2 provides bzip2 compression support for streamio. The
// standard library's compress/bzip2 only decompresses, so both directions
// here go through dsnet/compress, which implements the full bzip2 codec.
package bzip2

import (
	"io"
	"sync"

	"github.com/dsnet/compress/bzip2"
)

// Reader wraps an io.ReadCloser with bzip2 decompression.
type Reader struct {
	br     *bzip2.Reader
	closer io.Closer
	closed bool
	mu     sync.Mutex
}

// NewReader creates a new bzip2 reader that decompresses data from the
// underlying reader.
func NewReader(r io.ReadCloser) (*Reader, error) {
	br, err := bzip2.NewReader(r, nil)
	if err != nil {
		return nil, err
	}
	return &Reader{br: br, closer: r}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, io.ErrClosedPipe
	}
	return r.br.Read(p)
}

// Close closes both the bzip2 reader and the underlying reader.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.br.Close(); err != nil {
		_ = r.closer.Close()
		return err
	}
	return r.closer.Close()
}

var _ io.ReadCloser = (*Reader)(nil)
