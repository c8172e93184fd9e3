// Package local implements the Backend interface against the machine's own
// filesystem.
package local

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/flowstore/streamio"
)

// Config holds configuration for the local backend.
type Config struct {
	// Root is the root directory for all operations. All paths passed to
	// Backend methods are relative to this directory.
	Root string

	// CreateDirs controls whether parent directories are created
	// automatically on write. Default: true.
	CreateDirs bool

	// DirPermissions is the permission mode for created directories.
	// Default: 0755.
	DirPermissions os.FileMode

	// FilePermissions is the permission mode for created files.
	// Default: 0644.
	FilePermissions os.FileMode
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Root:            ".",
		CreateDirs:      true,
		DirPermissions:  0755,
		FilePermissions: 0644,
	}
}

// ConfigFromMap builds a Config from transport_params, recognizing "root"
// and "create_dirs".
func ConfigFromMap(params map[string]any) Config {
	cfg := DefaultConfig()
	if v, ok := params["root"]; ok {
		if s, ok := v.(string); ok && s != "" {
			cfg.Root = s
		}
	}
	if v, ok := params["create_dirs"]; ok {
		if b, ok := v.(bool); ok {
			cfg.CreateDirs = b
		}
	}
	return cfg
}

// Backend implements streamio.Backend and streamio.ExtendedBackend against
// the local filesystem.
type Backend struct {
	config Config
	closed bool
	mu     sync.RWMutex
}

// New creates a local backend rooted at config.Root.
func New(config Config) *Backend {
	if config.Root == "" {
		config.Root = "."
	}
	if config.DirPermissions == 0 {
		config.DirPermissions = 0755
	}
	if config.FilePermissions == 0 {
		config.FilePermissions = 0644
	}
	return &Backend{config: config}
}

func (b *Backend) Name() string { return "local" }

// NewReader opens path for reading starting at offset.
func (b *Backend) NewReader(ctx context.Context, path string, offset int64) (streamio.Stream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.validatePath(path); err != nil {
		return nil, err
	}

	f, err := os.Open(b.fullPath(path))
	if err != nil {
		return nil, b.translate(path, err)
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("seeking to offset %d: %w", offset, err)
		}
	}
	return f, nil
}

// NewSeekableReader opens path for random-access reading.
func (b *Backend) NewSeekableReader(ctx context.Context, path string) (streamio.SeekableStream, error) {
	s, err := b.NewReader(ctx, path, 0)
	if err != nil {
		return nil, err
	}
	return s.(*os.File), nil
}

// NewWriter opens path for writing, truncating unless append is set.
func (b *Backend) NewWriter(ctx context.Context, path string, append bool) (streamio.Stream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.validatePath(path); err != nil {
		return nil, err
	}

	fullPath := b.fullPath(path)
	if b.config.CreateDirs {
		dir := filepath.Dir(fullPath)
		if err := os.MkdirAll(dir, b.config.DirPermissions); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE
	if append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(fullPath, flags, b.config.FilePermissions)
	if err != nil {
		return nil, b.translate(path, err)
	}
	return f, nil
}

// Exists checks whether path exists.
func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	if err := b.checkClosed(); err != nil {
		return false, err
	}
	if err := b.validatePath(path); err != nil {
		return false, err
	}
	_, err := os.Stat(b.fullPath(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

// Delete removes path. Idempotent: deleting a missing path is not an error.
func (b *Backend) Delete(ctx context.Context, path string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := b.validatePath(path); err != nil {
		return err
	}
	err := os.Remove(b.fullPath(path))
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	if os.IsPermission(err) {
		return streamio.ErrPermissionDenied
	}
	return fmt.Errorf("deleting %s: %w", path, err)
}

// List lists paths under prefix.
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}

	root := b.config.Root
	if prefix != "" {
		root = b.fullPath(prefix)
	}

	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.config.Root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}
	return paths, nil
}

// Close marks the backend closed. Subsequent operations return ErrClosed.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Stat returns metadata about path.
func (b *Backend) Stat(ctx context.Context, path string) (streamio.ObjectInfo, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if err := b.validatePath(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(b.fullPath(path))
	if err != nil {
		return nil, b.translate(path, err)
	}

	contentType := ""
	if !info.IsDir() {
		if ext := filepath.Ext(path); ext != "" {
			contentType = mime.TypeByExtension(ext)
		}
	}

	return &streamio.BasicObjectInfo{
		ObjectPath:        path,
		ObjectSize:        info.Size(),
		ObjectModTime:     info.ModTime(),
		ObjectIsDir:       info.IsDir(),
		ObjectContentType: contentType,
	}, nil
}

// Mkdir creates path and any missing parents.
func (b *Backend) Mkdir(ctx context.Context, path string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := b.validatePath(path); err != nil {
		return err
	}
	if err := os.MkdirAll(b.fullPath(path), b.config.DirPermissions); err != nil {
		if os.IsPermission(err) {
			return streamio.ErrPermissionDenied
		}
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// Rmdir removes an empty directory.
func (b *Backend) Rmdir(ctx context.Context, path string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := b.validatePath(path); err != nil {
		return err
	}
	fullPath := b.fullPath(path)
	info, err := os.Stat(fullPath)
	if err != nil {
		return b.translate(path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("rmdir %s: not a directory", path)
	}
	if err := os.Remove(fullPath); err != nil {
		if os.IsPermission(err) {
			return streamio.ErrPermissionDenied
		}
		return fmt.Errorf("rmdir %s: %w", path, err)
	}
	return nil
}

// Copy copies src to dst by reading the full content through the process
// (the local filesystem has no cheaper server-side copy primitive).
func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := b.validatePath(src); err != nil {
		return err
	}
	if err := b.validatePath(dst); err != nil {
		return err
	}

	srcPath, dstPath := b.fullPath(src), b.fullPath(dst)
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return b.translate(src, err)
	}
	if srcInfo.IsDir() {
		return fmt.Errorf("copy %s: source is a directory", src)
	}
	if b.config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(dstPath), b.config.DirPermissions); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	return b.copyFile(srcPath, dstPath)
}

// Move renames src to dst, falling back to copy-then-delete across
// filesystem boundaries.
func (b *Backend) Move(ctx context.Context, src, dst string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := b.validatePath(src); err != nil {
		return err
	}
	if err := b.validatePath(dst); err != nil {
		return err
	}

	srcPath, dstPath := b.fullPath(src), b.fullPath(dst)
	if _, err := os.Stat(srcPath); err != nil {
		return b.translate(src, err)
	}
	if b.config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(dstPath), b.config.DirPermissions); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	if err := os.Rename(srcPath, dstPath); err == nil {
		return nil
	}
	if err := b.copyFile(srcPath, dstPath); err != nil {
		return err
	}
	return os.Remove(srcPath)
}

// Features reports local filesystem capabilities.
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

func (b *Backend) copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, b.config.FilePermissions)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("copy data: %w", err)
	}
	return dstFile.Close()
}

func (b *Backend) fullPath(path string) string {
	return filepath.Join(b.config.Root, filepath.FromSlash(path))
}

func (b *Backend) validatePath(path string) error {
	if path == "" {
		return streamio.ErrInvalidPath
	}
	cleaned := filepath.Clean(path)
	if strings.HasPrefix(cleaned, "..") || strings.Contains(cleaned, ".."+string(filepath.Separator)) {
		return streamio.ErrInvalidPath
	}
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

func (b *Backend) translate(path string, err error) error {
	if os.IsNotExist(err) {
		return streamio.ErrNotFound
	}
	if os.IsPermission(err) {
		return streamio.ErrPermissionDenied
	}
	return fmt.Errorf("%s: %w", path, err)
}

var (
	_ streamio.Backend         = (*Backend)(nil)
	_ streamio.SeekableBackend = (*Backend)(nil)
	_ streamio.ExtendedBackend = (*Backend)(nil)
)
