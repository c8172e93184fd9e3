package gcs

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"

	"github.com/flowstore/streamio"
)

// Writer drives the GCS resumable-upload session protocol: start a
// session with one POST, then PUT chunk-size-aligned ranges against the
// session URI, finishing with a PUT whose Content-Range names the total
// object size.
type Writer struct {
	backend    *Backend
	ctx        context.Context
	key        string
	sessionURI string

	buf    streamio.ByteBuffer
	sent   int64 // bytes already confirmed uploaded in prior chunks
	closed bool
	mu     sync.Mutex
}

func newWriter(b *Backend, ctx context.Context, key string) (*Writer, error) {
	sessionURI, err := startResumableSession(ctx, b, key)
	if err != nil {
		return nil, err
	}
	w := &Writer{backend: b, ctx: ctx, key: key, sessionURI: sessionURI}
	runtime.SetFinalizer(w, (*Writer).finalizeAbort)
	return w, nil
}

// finalizeAbort is the GC-time backstop for a Writer dropped without
// Close: it cancels the resumable session with a DELETE so GCS releases
// the uploaded-so-far bytes instead of leaving the session to expire on
// its own. Close clears the finalizer on every normal exit path, so this
// only ever fires on a genuine drop.
func (w *Writer) finalizeAbort() {
	w.mu.Lock()
	closed := w.closed
	sessionURI := w.sessionURI
	w.mu.Unlock()
	if closed || sessionURI == "" {
		return
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, sessionURI, nil)
	if err != nil {
		return
	}
	resp, err := w.backend.client.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}

func startResumableSession(ctx context.Context, b *Backend, key string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.objectURL(key, "resumable"), nil)
	if err != nil {
		return "", err
	}
	b.authorize(req)
	req.Header.Set("X-Upload-Content-Type", "application/octet-stream")
	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gcs: starting resumable session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", fmt.Errorf("gcs: resumable session response missing Location header")
	}
	return loc, nil
}

// Read always fails: Writer is write-only.
func (w *Writer) Read([]byte) (int, error) { return 0, streamio.ErrNotSupported }

// Write buffers p, flushing chunk-size-aligned intermediate chunks to the
// resumable session as the buffer fills.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, streamio.ErrClosed
	}

	n, _ := w.buf.Write(p)
	chunkSize := int(w.backend.config.ChunkSize)
	for w.buf.Len() >= chunkSize {
		if err := w.putChunkLocked(w.buf.Read(chunkSize), false); err != nil {
			return n, err
		}
	}
	return n, nil
}

// putChunkLocked PUTs chunk at the current session offset. final chunks
// carry a known total size in Content-Range so the session completes.
func (w *Writer) putChunkLocked(chunk []byte, final bool) error {
	n := int64(len(chunk))
	start := w.sent

	var contentRange string
	if final {
		total := start + n
		if n == 0 {
			contentRange = fmt.Sprintf("bytes */%d", total)
		} else {
			contentRange = fmt.Sprintf("bytes %d-%d/%d", start, start+n-1, total)
		}
	} else {
		if n == 0 {
			return nil
		}
		contentRange = fmt.Sprintf("bytes %d-%d/*", start, start+n-1)
	}

	req, err := http.NewRequestWithContext(w.ctx, http.MethodPut, w.sessionURI, bytes.NewReader(chunk))
	if err != nil {
		return err
	}
	req.ContentLength = n
	req.Header.Set("Content-Range", contentRange)
	resp, err := w.backend.client.Do(req)
	if err != nil {
		return fmt.Errorf("gcs: uploading chunk: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	const statusResumeIncomplete = 308
	if !final && resp.StatusCode != statusResumeIncomplete {
		return checkStatus(resp)
	}
	if final {
		if err := checkStatus(resp); err != nil {
			return err
		}
	}
	w.sent += n
	return nil
}

// Close finalizes the upload with a PUT whose Content-Range carries the
// total object size.
func (w *Writer) Close() error {
	defer runtime.SetFinalizer(w, nil)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	remaining := w.buf.Read(w.buf.Len())
	return w.putChunkLocked(remaining, true)
}

var _ streamio.Stream = (*Writer)(nil)
