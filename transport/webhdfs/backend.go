package webhdfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flowstore/streamio"
)

// Backend implements streamio.ExtendedBackend against a WebHDFS REST
// endpoint.
type Backend struct {
	nameNodeClient *http.Client
	dataNodeClient *http.Client
	config         Config
	closed         bool
	mu             sync.RWMutex
}

// New constructs a Backend from cfg.
func New(cfg Config) *Backend {
	if cfg.Port == 0 {
		cfg.Port = DefaultConfig().Port
	}
	if cfg.MinPartSize == 0 {
		cfg.MinPartSize = DefaultConfig().MinPartSize
	}
	return &Backend{
		nameNodeClient: &http.Client{
			Timeout: 30 * time.Second,
			// Capture the datanode redirect instead of following it, so
			// the caller can decide whether to reuse the same datanode
			// URL across a subsequent seek.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		dataNodeClient: &http.Client{Timeout: 30 * time.Second},
		config:         cfg,
	}
}

func (b *Backend) Name() string { return "webhdfs" }

func (b *Backend) baseURL() string {
	scheme := "http"
	if b.config.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d/webhdfs/v1", scheme, b.config.Host, b.config.Port)
}

func (b *Backend) nameNodeURL(p string, op string, extra url.Values) string {
	q := url.Values{}
	q.Set("op", op)
	if b.config.User != "" {
		q.Set("user.name", b.config.User)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return b.baseURL() + "/" + strings.TrimPrefix(p, "/") + "?" + q.Encode()
}

// redirectLocation issues req against the NameNode and returns the
// datanode redirect URL.
func (b *Backend) redirectLocation(ctx context.Context, method, nameNodeURL string) (string, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, nameNodeURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("webhdfs: building request: %w", err)
	}
	resp, err := b.nameNodeClient.Do(req)
	if err != nil {
		return "", nil, streamio.NewTransportError("webhdfs", err)
	}
	if resp.StatusCode == http.StatusTemporaryRedirect {
		loc := resp.Header.Get("Location")
		_ = resp.Body.Close()
		return loc, nil, nil
	}
	return "", resp, nil
}

// NewReader opens path for reading starting at offset, following the
// NameNode's datanode redirect.
func (b *Backend) NewReader(ctx context.Context, p string, offset int64) (streamio.Stream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	extra := url.Values{}
	if offset > 0 {
		extra.Set("offset", strconv.FormatInt(offset, 10))
	}
	nnURL := b.nameNodeURL(p, "OPEN", extra)

	dataNodeURL, resp, err := b.redirectLocation(ctx, http.MethodGet, nnURL)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
		if err := checkStatus(resp); err != nil {
			return nil, err
		}
		return &readStream{body: resp.Body}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dataNodeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("webhdfs: building datanode request: %w", err)
	}
	dnResp, err := b.dataNodeClient.Do(req)
	if err != nil {
		return nil, streamio.NewTransportError("webhdfs", err)
	}
	if err := checkStatus(dnResp); err != nil {
		_ = dnResp.Body.Close()
		return nil, err
	}
	return &readStream{body: dnResp.Body}, nil
}

// NewWriter opens path for writing. append selects WebHDFS's APPEND
// operation instead of CREATE.
func (b *Backend) NewWriter(ctx context.Context, p string, append bool) (streamio.Stream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	op := "CREATE"
	extra := url.Values{}
	if append {
		op = "APPEND"
	} else {
		extra.Set("overwrite", "true")
	}
	nnURL := b.nameNodeURL(p, op, extra)

	dataNodeURL, resp, err := b.redirectLocation(ctx, http.MethodPut, nnURL)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		_ = resp.Body.Close()
		if err := checkStatus(resp); err != nil {
			return nil, err
		}
	}
	if dataNodeURL == "" {
		return nil, streamio.NewTransportError("webhdfs", fmt.Errorf("no datanode redirect for %s", op))
	}

	w := newChunkedWriter(ctx, b.dataNodeClient, dataNodeURL, b.config.MinPartSize)
	w.appendNext = func(ctx context.Context) (string, error) {
		nextURL, resp, err := b.redirectLocation(ctx, http.MethodPut, b.nameNodeURL(p, "APPEND", nil))
		if err != nil {
			return "", err
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		if nextURL == "" {
			return "", streamio.NewTransportError("webhdfs", fmt.Errorf("no datanode redirect for APPEND"))
		}
		return nextURL, nil
	}
	return w, nil
}

// Exists checks for existence via GETFILESTATUS.
func (b *Backend) Exists(ctx context.Context, p string) (bool, error) {
	if err := b.checkClosed(); err != nil {
		return false, err
	}
	_, err := b.getFileStatus(ctx, p)
	if streamio.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes path, recursively if it is a directory.
func (b *Backend) Delete(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	extra := url.Values{"recursive": {"true"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.nameNodeURL(p, "DELETE", extra), nil)
	if err != nil {
		return fmt.Errorf("webhdfs: building request: %w", err)
	}
	resp, err := b.nameNodeClient.Do(req)
	if err != nil {
		return streamio.NewTransportError("webhdfs", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return checkStatus(resp)
}

// List lists entries directly under prefix via LISTSTATUS.
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.nameNodeURL(prefix, "LISTSTATUS", nil), nil)
	if err != nil {
		return nil, fmt.Errorf("webhdfs: building request: %w", err)
	}
	resp, err := b.nameNodeClient.Do(req)
	if err != nil {
		return nil, streamio.NewTransportError("webhdfs", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var payload struct {
		FileStatuses struct {
			FileStatus []struct {
				PathSuffix string `json:"pathSuffix"`
			} `json:"FileStatus"`
		} `json:"FileStatuses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("webhdfs: decoding LISTSTATUS response: %w", err)
	}

	paths := make([]string, 0, len(payload.FileStatuses.FileStatus))
	for _, fs := range payload.FileStatuses.FileStatus {
		paths = append(paths, strings.TrimSuffix(prefix, "/")+"/"+fs.PathSuffix)
	}
	return paths, nil
}

// Close releases idle connections held by the underlying clients.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.nameNodeClient.CloseIdleConnections()
	b.dataNodeClient.CloseIdleConnections()
	return nil
}

type fileStatus struct {
	Length       int64  `json:"length"`
	ModTimeMS    int64  `json:"modificationTime"`
	Type         string `json:"type"`
}

func (b *Backend) getFileStatus(ctx context.Context, p string) (*fileStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.nameNodeURL(p, "GETFILESTATUS", nil), nil)
	if err != nil {
		return nil, fmt.Errorf("webhdfs: building request: %w", err)
	}
	resp, err := b.nameNodeClient.Do(req)
	if err != nil {
		return nil, streamio.NewTransportError("webhdfs", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var payload struct {
		FileStatus fileStatus `json:"FileStatus"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("webhdfs: decoding GETFILESTATUS response: %w", err)
	}
	return &payload.FileStatus, nil
}

// Stat returns metadata about an object.
func (b *Backend) Stat(ctx context.Context, p string) (streamio.ObjectInfo, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	fs, err := b.getFileStatus(ctx, p)
	if err != nil {
		return nil, err
	}
	return &streamio.BasicObjectInfo{
		ObjectPath:    p,
		ObjectSize:    fs.Length,
		ObjectModTime: time.UnixMilli(fs.ModTimeMS),
		ObjectIsDir:   fs.Type == "DIRECTORY",
	}, nil
}

// Mkdir creates a directory and any missing parents via MKDIRS.
func (b *Backend) Mkdir(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, b.nameNodeURL(p, "MKDIRS", nil), nil)
	if err != nil {
		return fmt.Errorf("webhdfs: building request: %w", err)
	}
	resp, err := b.nameNodeClient.Do(req)
	if err != nil {
		return streamio.NewTransportError("webhdfs", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return checkStatus(resp)
}

// Rmdir removes an empty directory.
func (b *Backend) Rmdir(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	entries, err := b.List(ctx, p)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("webhdfs: directory not empty: %s", p)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.nameNodeURL(p, "DELETE", nil), nil)
	if err != nil {
		return fmt.Errorf("webhdfs: building request: %w", err)
	}
	resp, err := b.nameNodeClient.Do(req)
	if err != nil {
		return streamio.NewTransportError("webhdfs", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return checkStatus(resp)
}

// Copy is not natively supported by WebHDFS; it streams through the client.
func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	r, err := b.NewReader(ctx, src, 0)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()
	w, err := b.NewWriter(ctx, dst, false)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("webhdfs: copying: %w", err)
	}
	return w.Close()
}

// Move renames path via RENAME.
func (b *Backend) Move(ctx context.Context, src, dst string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	extra := url.Values{"destination": {"/" + strings.TrimPrefix(dst, "/")}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, b.nameNodeURL(src, "RENAME", extra), nil)
	if err != nil {
		return fmt.Errorf("webhdfs: building request: %w", err)
	}
	resp, err := b.nameNodeClient.Do(req)
	if err != nil {
		return streamio.NewTransportError("webhdfs", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return checkStatus(resp)
}

// Features reports WebHDFS capabilities.
func (b *Backend) Features() streamio.Features {
	return streamio.Features{
		Copy:       true,
		Move:       true,
		Mkdir:      true,
		Rmdir:      true,
		Stat:       true,
		RangeRead:  true,
		ListPrefix: true,
	}
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
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return streamio.ErrPermissionDenied
	default:
		return streamio.NewTransportError("webhdfs", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}

type readStream struct {
	body io.ReadCloser
}

func (r *readStream) Read(p []byte) (int, error) { return r.body.Read(p) }
func (r *readStream) Write([]byte) (int, error)  { return 0, streamio.ErrNotSupported }
func (r *readStream) Close() error               { return r.body.Close() }

var (
	_ streamio.Backend         = (*Backend)(nil)
	_ streamio.ExtendedBackend = (*Backend)(nil)
)
