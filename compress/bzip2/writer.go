package bzip2

import (
	"io"
	"sync"

	"github.com/dsnet/compress/bzip2"
)

// CompressionLevel mirrors the gzip/zstd codec packages' level type for
// symmetry, even though dsnet/compress only exposes a 1-9 integer scale.
type CompressionLevel int

const (
	BestSpeed          CompressionLevel = 1
	DefaultCompression CompressionLevel = 6
	BestCompression    CompressionLevel = 9
)

// Writer wraps an io.WriteCloser with bzip2 compression.
type Writer struct {
	bw     *bzip2.Writer
	closer io.Closer
	closed bool
	mu     sync.Mutex
}

// NewWriter creates a new bzip2 writer with default compression level.
func NewWriter(w io.WriteCloser) (*Writer, error) {
	return NewWriterLevel(w, DefaultCompression)
}

// NewWriterLevel creates a new bzip2 writer with the specified compression level.
func NewWriterLevel(w io.WriteCloser, level CompressionLevel) (*Writer, error) {
	bw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: int(level)})
	if err != nil {
		return nil, err
	}
	return &Writer{bw: bw, closer: w}, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	return w.bw.Write(p)
}

// Close flushes any remaining data and closes both the bzip2 writer and
// the underlying writer.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.bw.Close(); err != nil {
		_ = w.closer.Close()
		return err
	}
	return w.closer.Close()
}

var _ io.WriteCloser = (*Writer)(nil)
