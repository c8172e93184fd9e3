package gcs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flowstore/streamio"
	"github.com/flowstore/streamio/transport/internal/rangedreader"
)

// Backend implements streamio.ExtendedBackend against the Google Cloud
// Storage JSON/XML HTTP API directly, the same "no SDK in the pack, roll
// it over net/http" treatment given to the WebHDFS backend.
type Backend struct {
	client *http.Client
	config Config
	closed bool
	mu     sync.RWMutex
}

// New creates a Backend from cfg.
func New(cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Backend{client: &http.Client{Timeout: 60 * time.Second}, config: cfg}, nil
}

func (b *Backend) Name() string { return "gcs" }

func (b *Backend) objectURL(p, kind string) string {
	escaped := url.PathEscape(p)
	switch kind {
	case "media":
		return fmt.Sprintf("%s/download/storage/v1/b/%s/o/%s?alt=media", b.config.Endpoint, b.config.Bucket, escaped)
	case "metadata":
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s", b.config.Endpoint, b.config.Bucket, escaped)
	case "resumable":
		return fmt.Sprintf("%s/upload/storage/v1/b/%s/o?uploadType=resumable&name=%s", b.config.Endpoint, b.config.Bucket, url.QueryEscape(p))
	default:
		panic("gcs: unknown url kind " + kind)
	}
}

func (b *Backend) authorize(req *http.Request) {
	if b.config.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.config.AccessToken)
	}
}

// NewReader opens a reader at offset, built on the shared ranged-reader
// state machine also used by the S3 transport.
func (b *Backend) NewReader(ctx context.Context, p string, offset int64) (streamio.Stream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	r := rangedreader.New(ctx, &gcsOpener{backend: b, key: p})
	if offset > 0 {
		if _, err := r.Seek(offset, 0); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewSeekableReader opens a reader at the start.
func (b *Backend) NewSeekableReader(ctx context.Context, p string) (streamio.SeekableStream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	return rangedreader.New(ctx, &gcsOpener{backend: b, key: p}), nil
}

// NewWriter opens a resumable-upload writer. append is not supported: GCS
// objects are immutable once finalized.
func (b *Backend) NewWriter(ctx context.Context, p string, append bool) (streamio.Stream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if append {
		return nil, streamio.ErrNotSupported
	}
	return newWriter(b, ctx, p)
}

type objectMetadata struct {
	Size        string `json:"size"`
	Updated     string `json:"updated"`
	ContentType string `json:"contentType"`
	MD5Hash     string `json:"md5Hash"`
}

func (b *Backend) stat(ctx context.Context, p string) (*objectMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.objectURL(p, "metadata"), nil)
	if err != nil {
		return nil, err
	}
	b.authorize(req)
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gcs: stat request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var meta objectMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("gcs: decoding object metadata: %w", err)
	}
	return &meta, nil
}

// Exists checks if an object exists via its metadata endpoint.
func (b *Backend) Exists(ctx context.Context, p string) (bool, error) {
	if err := b.checkClosed(); err != nil {
		return false, err
	}
	_, err := b.stat(ctx, p)
	if err == streamio.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes an object. Idempotent.
func (b *Backend) Delete(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.objectURL(p, "metadata"), nil)
	if err != nil {
		return err
	}
	b.authorize(req)
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("gcs: delete request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return checkStatus(resp)
}

type listResponse struct {
	Items []struct {
		Name string `json:"name"`
	} `json:"items"`
}

// List lists object names under prefix.
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	listURL := fmt.Sprintf("%s/storage/v1/b/%s/o?prefix=%s", b.config.Endpoint, b.config.Bucket, url.QueryEscape(prefix))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	b.authorize(req)
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gcs: list request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var listed listResponse
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		return nil, fmt.Errorf("gcs: decoding list response: %w", err)
	}
	names := make([]string, 0, len(listed.Items))
	for _, item := range listed.Items {
		names = append(names, item.Name)
	}
	return names, nil
}

// Close marks the backend closed; http.Client has no explicit teardown
// beyond idle-connection cleanup.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.client.CloseIdleConnections()
	return nil
}

// Stat returns metadata about an object.
func (b *Backend) Stat(ctx context.Context, p string) (streamio.ObjectInfo, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	meta, err := b.stat(ctx, p)
	if err != nil {
		return nil, err
	}
	size, _ := strconv.ParseInt(meta.Size, 10, 64)
	modTime, _ := time.Parse(time.RFC3339, meta.Updated)

	hashes := map[streamio.HashType]string{}
	if meta.MD5Hash != "" {
		hashes[streamio.HashMD5] = meta.MD5Hash
	}
	return &streamio.BasicObjectInfo{
		ObjectPath:        p,
		ObjectSize:        size,
		ObjectModTime:     modTime,
		ObjectContentType: meta.ContentType,
		ObjectHashes:      hashes,
	}, nil
}

// Mkdir creates a zero-byte directory marker object (GCS has no real
// directories).
func (b *Backend) Mkdir(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	key := p
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}
	w, err := newWriter(b, ctx, key)
	if err != nil {
		return err
	}
	return w.Close()
}

// Rmdir removes a directory marker if the prefix is otherwise empty.
func (b *Backend) Rmdir(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	key := p
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}
	names, err := b.List(ctx, key)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name != key {
			return fmt.Errorf("gcs: directory not empty: %s", p)
		}
	}
	return b.Delete(ctx, key)
}

// Copy uses GCS's server-side object copy.
func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	copyURL := fmt.Sprintf("%s/storage/v1/b/%s/o/%s/copyTo/b/%s/o/%s",
		b.config.Endpoint, b.config.Bucket, url.PathEscape(src), b.config.Bucket, url.PathEscape(dst))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, copyURL, nil)
	if err != nil {
		return err
	}
	b.authorize(req)
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("gcs: copy request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return checkStatus(resp)
}

// Move copies then deletes; GCS has no native rename.
func (b *Backend) Move(ctx context.Context, src, dst string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := b.Copy(ctx, src, dst); err != nil {
		return err
	}
	return b.Delete(ctx, src)
}

// Features reports GCS capabilities.
func (b *Backend) Features() streamio.Features {
	return streamio.Features{
		Copy:                 true,
		Move:                 true,
		Mkdir:                true,
		Rmdir:                true,
		Stat:                 true,
		Hashes:               []streamio.HashType{streamio.HashMD5},
		CanStream:            true,
		ServerSideEncryption: true,
		Versioning:           true,
		RangeRead:            true,
		ListPrefix:           true,
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
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return streamio.ErrPermissionDenied
	default:
		return fmt.Errorf("gcs: request failed: %s", resp.Status)
	}
}

var (
	_ streamio.Backend         = (*Backend)(nil)
	_ streamio.SeekableBackend = (*Backend)(nil)
	_ streamio.ExtendedBackend = (*Backend)(nil)
)
