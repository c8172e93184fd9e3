// Package rangedreader implements the seekable-reader state machine shared
// by the S3 and GCS transports: both fetch an object body via a ranged
// HTTP GET, reopening at a new offset on Seek, and both want ReadLine
// scanning over a prefetch buffer. Extracted out of the S3 reader once the
// GCS transport needed the identical shape, rather than letting GCS
// hand-roll a second copy of it.
package rangedreader

import (
	"context"
	"fmt"
	"io"

	"github.com/flowstore/streamio"
)

// Opener is the per-backend hook Reader drives. Open must return an
// already-translated streamio error (ErrNotFound etc.) on failure, never a
// raw SDK/HTTP error. size is the total object size if the backend's GET
// response reveals it at offset 0 (e.g. via Content-Length), or -1 if
// unknown; Reader treats -1 as "ask Size() when it matters".
type Opener interface {
	Open(ctx context.Context, offset int64) (body io.ReadCloser, size int64, err error)
	Size(ctx context.Context) (int64, error)
}

// Reader is a generic seekable, line-oriented object reader built on top
// of an Opener. It keeps a live body open, reopens it at the target
// offset on Seek, and buffers bytes read ahead of a ReadLine scan so the
// caller's Read calls see the exact same stream.
type Reader struct {
	ctx    context.Context
	opener Opener

	pos       int64
	size      int64 // -1 until known
	body      io.ReadCloser
	buf       streamio.ByteBuffer
	closed    bool
	sizeKnown bool
}

// New wraps opener in a Reader starting at offset 0.
func New(ctx context.Context, opener Opener) *Reader {
	return &Reader{ctx: ctx, opener: opener, size: -1}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, streamio.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	if r.buf.Len() > 0 {
		n := copy(p, r.buf.Read(len(p)))
		r.pos += int64(n)
		return n, nil
	}

	if r.body == nil {
		if err := r.openAt(r.pos); err != nil {
			return 0, err
		}
	}

	n, err := r.body.Read(p)
	r.pos += int64(n)
	if err == io.EOF {
		_ = r.body.Close()
		r.body = nil
	}
	return n, err
}

// Write always fails: Reader is read-only.
func (r *Reader) Write([]byte) (int, error) { return 0, streamio.ErrNotSupported }

// Close releases the underlying body, if one is open.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.body != nil {
		err := r.body.Close()
		r.body = nil
		return err
	}
	return nil
}

// Seek implements io.Seeker by discarding the current body and buffer;
// the next Read or ReadLine reopens lazily at the new offset.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if r.closed {
		return 0, streamio.ErrClosed
	}

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		if err := r.ensureSize(); err != nil {
			return 0, err
		}
		target = r.size + offset
	default:
		return 0, fmt.Errorf("rangedreader: invalid whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("rangedreader: negative seek position")
	}
	if target == r.pos && r.body != nil {
		return r.pos, nil
	}

	if r.body != nil {
		_ = r.body.Close()
		r.body = nil
	}
	r.buf.Reset()
	r.pos = target
	return r.pos, nil
}

// ReadLine returns the next newline-terminated record, without its
// trailing '\n'.
func (r *Reader) ReadLine() ([]byte, error) {
	if r.closed {
		return nil, streamio.ErrClosed
	}

	for {
		if idx := indexByte(r.buf.Peek(r.buf.Len()), '\n'); idx >= 0 {
			line := r.buf.Read(idx + 1)
			r.pos += int64(len(line))
			return line[:len(line)-1], nil
		}

		chunk := make([]byte, 32*1024)
		n, err := r.readRaw(chunk)
		if n > 0 {
			_, _ = r.buf.Write(chunk[:n])
		}
		if err != nil {
			if err == io.EOF && r.buf.Len() > 0 {
				line := r.buf.Read(r.buf.Len())
				r.pos += int64(len(line))
				return line, nil
			}
			return nil, err
		}
	}
}

// readRaw reads directly from the live body, bypassing the prefetch
// buffer, for ReadLine's internal refill loop.
func (r *Reader) readRaw(p []byte) (int, error) {
	if r.body == nil {
		if err := r.openAt(r.pos + int64(r.buf.Len())); err != nil {
			return 0, err
		}
	}
	n, err := r.body.Read(p)
	if err == io.EOF {
		_ = r.body.Close()
		r.body = nil
	}
	return n, err
}

func (r *Reader) openAt(offset int64) error {
	body, size, err := r.opener.Open(r.ctx, offset)
	if err != nil {
		return err
	}
	if size >= 0 && !r.sizeKnown && offset == 0 {
		r.size = size
		r.sizeKnown = true
	}
	r.body = body
	return nil
}

func (r *Reader) ensureSize() error {
	if r.sizeKnown {
		return nil
	}
	size, err := r.opener.Size(r.ctx)
	if err != nil {
		return err
	}
	r.size = size
	r.sizeKnown = true
	return nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

var (
	_ streamio.SeekableStream = (*Reader)(nil)
	_ streamio.LineReader     = (*Reader)(nil)
)
