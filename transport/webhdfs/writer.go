package webhdfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/flowstore/streamio"
)

// chunkedWriter buffers writes up to minPartSize and flushes each chunk as
// its own PUT: the first chunk goes to the CREATE redirect URL already
// obtained by the caller, and every later chunk re-requests an APPEND
// redirect from the NameNode before flushing.
type chunkedWriter struct {
	ctx         context.Context
	client      *http.Client
	firstURL    string
	appendNext  func(ctx context.Context) (string, error)
	buf         bytes.Buffer
	minPartSize int
	wroteFirst  bool
	closed      bool
}

func newChunkedWriter(ctx context.Context, client *http.Client, firstURL string, minPartSize int) *chunkedWriter {
	return &chunkedWriter{ctx: ctx, client: client, firstURL: firstURL, minPartSize: minPartSize}
}

func (w *chunkedWriter) Read([]byte) (int, error) { return 0, streamio.ErrNotSupported }

func (w *chunkedWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, streamio.ErrClosed
	}
	n, _ := w.buf.Write(p)
	if w.buf.Len() >= w.minPartSize {
		if err := w.flush(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (w *chunkedWriter) flush() error {
	if w.buf.Len() == 0 {
		return nil
	}
	targetURL := w.firstURL
	if w.wroteFirst {
		var err error
		targetURL, err = w.appendNext(w.ctx)
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(w.ctx, http.MethodPut, targetURL, bytes.NewReader(w.buf.Bytes()))
	if err != nil {
		return fmt.Errorf("webhdfs: building chunk request: %w", err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return streamio.NewTransportError("webhdfs", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return err
	}

	w.wroteFirst = true
	w.buf.Reset()
	return nil
}

func (w *chunkedWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.flush()
}

var _ io.ReadWriteCloser = (*chunkedWriter)(nil)
