// Package http implements a read-mostly Backend over HTTP(S) GET/PUT/HEAD/DELETE.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/flowstore/streamio"
)

// Backend implements streamio.SeekableBackend over net/http.
type Backend struct {
	client *http.Client
	config Config
	closed bool
	mu     sync.RWMutex
}

// New constructs a Backend from cfg.
func New(cfg Config) *Backend {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		transport = insecureTransport()
	}
	return &Backend{
		client: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		config: cfg,
	}
}

func (b *Backend) Name() string { return "http" }

func (b *Backend) url(p string) string {
	if b.config.BaseURL == "" {
		return p
	}
	return strings.TrimSuffix(b.config.BaseURL, "/") + "/" + strings.TrimPrefix(p, "/")
}

func (b *Backend) authorize(req *http.Request) {
	if b.config.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.config.BearerToken)
	} else if b.config.User != "" {
		req.SetBasicAuth(b.config.User, b.config.Password)
	}
}

// NewReader issues a single GET, optionally resuming at offset via Range.
func (b *Backend) NewReader(ctx context.Context, p string, offset int64) (streamio.Stream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url(p), nil)
	if err != nil {
		return nil, fmt.Errorf("http: building request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "identity")
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	b.authorize(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, streamio.NewTransportError("http", err)
	}
	if err := checkStatus(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return &readStream{body: resp.Body}, nil
}

// NewSeekableReader returns a stream that supports Seek by reissuing a
// ranged GET (or, if the server ignored the original Range request,
// discarding and re-reading from the start).
func (b *Backend) NewSeekableReader(ctx context.Context, p string) (streamio.SeekableStream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}

	size, rangeOK, err := b.probe(ctx, p)
	if err != nil {
		return nil, err
	}

	stream := &seekableStream{ctx: ctx, backend: b, path: p, size: size, rangeSupported: rangeOK}
	if err := stream.reopen(0); err != nil {
		return nil, err
	}
	return stream, nil
}

func (b *Backend) probe(ctx context.Context, p string) (size int64, rangeSupported bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, b.url(p), nil)
	if err != nil {
		return 0, false, fmt.Errorf("http: building request: %w", err)
	}
	b.authorize(req)
	resp, err := b.client.Do(req)
	if err != nil {
		return 0, false, streamio.NewTransportError("http", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return 0, false, err
	}
	size, _ = strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	rangeSupported = resp.Header.Get("Accept-Ranges") == "bytes"
	return size, rangeSupported, nil
}

// NewWriter streams the written bytes as a PUT request body. append is not
// supported for plain HTTP targets.
func (b *Backend) NewWriter(ctx context.Context, p string, append bool) (streamio.Stream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if append {
		return nil, streamio.ErrNotSupported
	}

	pr, pw := io.Pipe()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, b.url(p), pr)
	if err != nil {
		return nil, fmt.Errorf("http: building request: %w", err)
	}
	b.authorize(req)

	w := &writeStream{pipeWriter: pw, done: make(chan error, 1)}
	go func() {
		resp, err := b.client.Do(req)
		if err != nil {
			w.done <- streamio.NewTransportError("http", err)
			return
		}
		defer func() { _ = resp.Body.Close() }()
		w.done <- checkStatus(resp)
	}()
	return w, nil
}

// Exists issues a HEAD request.
func (b *Backend) Exists(ctx context.Context, p string) (bool, error) {
	if err := b.checkClosed(); err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, b.url(p), nil)
	if err != nil {
		return false, fmt.Errorf("http: building request: %w", err)
	}
	b.authorize(req)
	resp, err := b.client.Do(req)
	if err != nil {
		return false, streamio.NewTransportError("http", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err := checkStatus(resp); err != nil {
		return false, err
	}
	return true, nil
}

// Delete issues a DELETE request.
func (b *Backend) Delete(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.url(p), nil)
	if err != nil {
		return fmt.Errorf("http: building request: %w", err)
	}
	b.authorize(req)
	resp, err := b.client.Do(req)
	if err != nil {
		return streamio.NewTransportError("http", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return checkStatus(resp)
}

// List is not meaningful over plain HTTP(S).
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, streamio.ErrNotSupported
}

// Close releases idle connections held by the underlying client.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.client.CloseIdleConnections()
	return nil
}

func (b *Backend) checkClosed() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return streamio.ErrClosed
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return streamio.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return streamio.ErrPermissionDenied
	default:
		return streamio.NewTransportError("http", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}

// readStream wraps a GET response body as a Stream; Write always errors.
type readStream struct {
	body io.ReadCloser
}

func (r *readStream) Read(p []byte) (int, error) { return r.body.Read(p) }
func (r *readStream) Write([]byte) (int, error)  { return 0, streamio.ErrNotSupported }
func (r *readStream) Close() error               { return r.body.Close() }

// writeStream pipes Write calls into an in-flight PUT request body.
type writeStream struct {
	pipeWriter *io.PipeWriter
	done       chan error
}

func (w *writeStream) Read([]byte) (int, error) { return 0, streamio.ErrNotSupported }
func (w *writeStream) Write(p []byte) (int, error) {
	return w.pipeWriter.Write(p)
}
func (w *writeStream) Close() error {
	if err := w.pipeWriter.Close(); err != nil {
		return err
	}
	return <-w.done
}

// seekableStream supports Seek by reopening the underlying GET at a new
// offset, either via Range (fast path) or by discarding bytes from the
// start (slow path, used when the server doesn't advertise Range support).
type seekableStream struct {
	ctx            context.Context
	backend        *Backend
	path           string
	size           int64
	rangeSupported bool
	body           io.ReadCloser
	pos            int64
}

func (s *seekableStream) Read(p []byte) (int, error) {
	n, err := s.body.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *seekableStream) Write([]byte) (int, error) { return 0, streamio.ErrNotSupported }

func (s *seekableStream) Close() error {
	if s.body == nil {
		return nil
	}
	return s.body.Close()
}

func (s *seekableStream) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	case io.SeekEnd:
		target = s.size + offset
	default:
		return 0, fmt.Errorf("http: invalid whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("http: negative seek position")
	}
	if target == s.pos {
		return s.pos, nil
	}

	if s.rangeSupported {
		if err := s.reopen(target); err != nil {
			return 0, err
		}
		return s.pos, nil
	}

	// Slow path: the server ignores Range, so reopen from the start and
	// discard up to target.
	if target < s.pos {
		if err := s.reopen(0); err != nil {
			return 0, err
		}
	}
	if _, err := io.CopyN(io.Discard, s, target-s.pos); err != nil && err != io.EOF {
		return 0, fmt.Errorf("http: discarding to offset: %w", err)
	}
	return s.pos, nil
}

func (s *seekableStream) reopen(offset int64) error {
	if s.body != nil {
		_ = s.body.Close()
	}
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.backend.url(s.path), nil)
	if err != nil {
		return fmt.Errorf("http: building request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "identity")
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	s.backend.authorize(req)

	resp, err := s.backend.client.Do(req)
	if err != nil {
		return streamio.NewTransportError("http", err)
	}
	if err := checkStatus(resp); err != nil {
		_ = resp.Body.Close()
		return err
	}
	if offset > 0 && resp.StatusCode == http.StatusOK {
		// The server ignored Range and sent the body from byte 0.
		if _, err := io.CopyN(io.Discard, resp.Body, offset); err != nil && err != io.EOF {
			_ = resp.Body.Close()
			return fmt.Errorf("http: discarding to offset: %w", err)
		}
	}
	s.body = resp.Body
	s.pos = offset
	return nil
}

var (
	_ streamio.Backend         = (*Backend)(nil)
	_ streamio.SeekableBackend = (*Backend)(nil)
)
