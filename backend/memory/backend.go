// Package memory provides an in-memory Backend, used by this module's own
// test suites (bucketiter) in place of a real object store.
//
// Data is stored in RAM and lost when the backend is closed or the process
// exits.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flowstore/streamio"
)

// object represents a stored object in memory.
type object struct {
	data        []byte
	contentType string
	modTime     time.Time
	isDir       bool
}

// Backend implements streamio.ExtendedBackend and streamio.SeekableBackend
// for in-memory storage.
type Backend struct {
	objects map[string]*object
	closed  bool
	mu      sync.RWMutex
}

// New creates a new memory backend.
func New() *Backend {
	return &Backend{objects: make(map[string]*object)}
}

func (b *Backend) Name() string { return "memory" }

// NewWriter creates a writer for the given path. append preserves any
// existing content and writes after it; otherwise the object is truncated.
func (b *Backend) NewWriter(ctx context.Context, p string, append bool) (streamio.Stream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePath(p); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if append {
		b.mu.RLock()
		if obj, exists := b.objects[normalizePath(p)]; exists && !obj.isDir {
			buf.Write(obj.data)
		}
		b.mu.RUnlock()
	}

	return &memoryWriter{backend: b, path: normalizePath(p), buffer: buf}, nil
}

// NewReader creates a reader for the given path starting at offset.
func (b *Backend) NewReader(ctx context.Context, p string, offset int64) (streamio.Stream, error) {
	r, err := b.newSeekableReader(ctx, p)
	if err != nil {
		return nil, err
	}
	if offset > 0 {
		if _, err := r.Seek(offset, 0); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewSeekableReader is like NewReader but the returned stream also
// implements io.Seeker.
func (b *Backend) NewSeekableReader(ctx context.Context, p string) (streamio.SeekableStream, error) {
	return b.newSeekableReader(ctx, p)
}

func (b *Backend) newSeekableReader(ctx context.Context, p string) (*memoryReader, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePath(p); err != nil {
		return nil, err
	}

	normalPath := normalizePath(p)

	b.mu.RLock()
	obj, exists := b.objects[normalPath]
	b.mu.RUnlock()

	if !exists {
		return nil, streamio.ErrNotFound
	}
	if obj.isDir {
		return nil, fmt.Errorf("cannot read directory: %s", p)
	}

	data := make([]byte, len(obj.data))
	copy(data, obj.data)

	return &memoryReader{reader: bytes.NewReader(data)}, nil
}

// Exists checks if a path exists.
func (b *Backend) Exists(ctx context.Context, p string) (bool, error) {
	if err := b.checkClosed(); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validatePath(p); err != nil {
		return false, err
	}

	b.mu.RLock()
	_, exists := b.objects[normalizePath(p)]
	b.mu.RUnlock()
	return exists, nil
}

// Delete removes a path. Idempotent.
func (b *Backend) Delete(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	b.mu.Lock()
	delete(b.objects, normalizePath(p))
	b.mu.Unlock()
	return nil
}

// List lists paths with the given prefix.
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalPrefix := normalizePath(prefix)

	b.mu.RLock()
	defer b.mu.RUnlock()

	var paths []string
	for p, obj := range b.objects {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if obj.isDir {
			continue
		}
		if normalPrefix == "" || strings.HasPrefix(p, normalPrefix) || strings.HasPrefix(p, normalPrefix+"/") {
			paths = append(paths, p)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// Close releases any resources held by the backend.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.objects = nil
	return nil
}

// Stat returns metadata about an object at the given path.
func (b *Backend) Stat(ctx context.Context, p string) (streamio.ObjectInfo, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePath(p); err != nil {
		return nil, err
	}

	normalPath := normalizePath(p)

	b.mu.RLock()
	obj, exists := b.objects[normalPath]
	b.mu.RUnlock()

	if !exists {
		return nil, streamio.ErrNotFound
	}

	size := int64(len(obj.data))
	if obj.isDir {
		size = 0
	}

	return &streamio.BasicObjectInfo{
		ObjectPath:        normalPath,
		ObjectSize:        size,
		ObjectModTime:     obj.modTime,
		ObjectIsDir:       obj.isDir,
		ObjectContentType: obj.contentType,
	}, nil
}

// Mkdir creates a directory at the given path, including parents.
func (b *Backend) Mkdir(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	normalPath := normalizePath(p)

	b.mu.Lock()
	defer b.mu.Unlock()

	parts := strings.Split(normalPath, "/")
	for i := range parts {
		dirPath := strings.Join(parts[:i+1], "/")
		if _, exists := b.objects[dirPath]; !exists {
			b.objects[dirPath] = &object{isDir: true, modTime: time.Now()}
		}
	}
	return nil
}

// Rmdir removes an empty directory.
func (b *Backend) Rmdir(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	normalPath := normalizePath(p)

	b.mu.Lock()
	defer b.mu.Unlock()

	obj, exists := b.objects[normalPath]
	if !exists {
		return streamio.ErrNotFound
	}
	if !obj.isDir {
		return fmt.Errorf("not a directory: %s", p)
	}

	prefix := normalPath + "/"
	for objPath := range b.objects {
		if strings.HasPrefix(objPath, prefix) {
			return fmt.Errorf("directory not empty: %s", p)
		}
	}

	delete(b.objects, normalPath)
	return nil
}

// Copy copies an object from src to dst.
func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(src); err != nil {
		return err
	}
	if err := validatePath(dst); err != nil {
		return err
	}

	srcPath, dstPath := normalizePath(src), normalizePath(dst)

	b.mu.Lock()
	defer b.mu.Unlock()

	srcObj, exists := b.objects[srcPath]
	if !exists {
		return streamio.ErrNotFound
	}
	if srcObj.isDir {
		return fmt.Errorf("cannot copy directory: %s", src)
	}

	dataCopy := make([]byte, len(srcObj.data))
	copy(dataCopy, srcObj.data)

	b.objects[dstPath] = &object{
		data:        dataCopy,
		contentType: srcObj.contentType,
		modTime:     time.Now(),
	}
	return nil
}

// Move moves/renames an object from src to dst.
func (b *Backend) Move(ctx context.Context, src, dst string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(src); err != nil {
		return err
	}
	if err := validatePath(dst); err != nil {
		return err
	}

	srcPath, dstPath := normalizePath(src), normalizePath(dst)

	b.mu.Lock()
	defer b.mu.Unlock()

	srcObj, exists := b.objects[srcPath]
	if !exists {
		return streamio.ErrNotFound
	}
	if srcObj.isDir {
		return fmt.Errorf("cannot move directory: %s", src)
	}

	b.objects[dstPath] = &object{
		data:        srcObj.data,
		contentType: srcObj.contentType,
		modTime:     time.Now(),
	}
	delete(b.objects, srcPath)
	return nil
}

// Features returns the capabilities of the memory backend.
func (b *Backend) Features() streamio.Features {
	return streamio.Features{
		Copy:       true,
		Move:       true,
		Mkdir:      true,
		Rmdir:      true,
		Stat:       true,
		CanStream:  true,
		RangeRead:  true,
		ListPrefix: true,
	}
}

// Size returns the total size of all objects in the backend.
func (b *Backend) Size() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var total int64
	for _, obj := range b.objects {
		total += int64(len(obj.data))
	}
	return total
}

// Count returns the number of objects in the backend.
func (b *Backend) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, obj := range b.objects {
		if !obj.isDir {
			count++
		}
	}
	return count
}

// Clear removes all objects from the backend.
func (b *Backend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects = make(map[string]*object)
}

func (b *Backend) checkClosed() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return streamio.ErrClosed
	}
	return nil
}

func validatePath(p string) error {
	if p == "" {
		return streamio.ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "..") || strings.Contains(cleaned, "/../") {
		return streamio.ErrInvalidPath
	}
	return nil
}

func normalizePath(p string) string {
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// memoryWriter implements streamio.Stream for the memory backend.
type memoryWriter struct {
	backend *Backend
	path    string
	buffer  *bytes.Buffer
	closed  bool
	mu      sync.Mutex
}

func (w *memoryWriter) Read([]byte) (int, error) { return 0, streamio.ErrNotSupported }

func (w *memoryWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, streamio.ErrClosed
	}
	return w.buffer.Write(p)
}

func (w *memoryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	w.backend.mu.Lock()
	defer w.backend.mu.Unlock()
	if w.backend.closed {
		return streamio.ErrClosed
	}

	w.backend.objects[w.path] = &object{data: w.buffer.Bytes(), modTime: time.Now()}
	return nil
}

// memoryReader implements streamio.SeekableStream for the memory backend.
type memoryReader struct {
	reader *bytes.Reader
	closed bool
	mu     sync.Mutex
}

func (r *memoryReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, streamio.ErrClosed
	}
	return r.reader.Read(p)
}

func (r *memoryReader) Write([]byte) (int, error) { return 0, streamio.ErrNotSupported }

func (r *memoryReader) Seek(offset int64, whence int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, streamio.ErrClosed
	}
	return r.reader.Seek(offset, whence)
}

func (r *memoryReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

var (
	_ streamio.Backend         = (*Backend)(nil)
	_ streamio.SeekableBackend = (*Backend)(nil)
	_ streamio.ExtendedBackend = (*Backend)(nil)
	_ streamio.SeekableStream  = (*memoryReader)(nil)
)
