// Package ssh implements the Backend interface over SFTP.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/flowstore/streamio"
)

// Backend implements streamio.ExtendedBackend over an SFTP session.
type Backend struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	config     Config
	closed     bool
	mu         sync.RWMutex
}

// New dials host and opens an SFTP session.
func New(cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30
	}

	var authMethods []ssh.AuthMethod
	if cfg.Password != "" {
		authMethods = append(authMethods, ssh.Password(cfg.Password))
	}
	if cfg.KeyFile != "" {
		keyAuth, err := keyFileAuth(cfg.KeyFile, cfg.KeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("ssh: loading key file: %w", err)
		}
		authMethods = append(authMethods, keyAuth)
	}
	if len(authMethods) == 0 {
		return nil, fmt.Errorf("ssh: no authentication method provided (password or key_file required)")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec // overridden below when KnownHostsFile is set
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("ssh: loading known_hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	sshConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            authMethods,
		Timeout:         time.Duration(cfg.Timeout) * time.Second,
		HostKeyCallback: hostKeyCallback,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	sshClient, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, streamio.NewTransportError("ssh", err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, streamio.NewTransportError("ssh", err)
	}

	return &Backend{sshClient: sshClient, sftpClient: sftpClient, config: cfg}, nil
}

func keyFileAuth(keyFile, passphrase string) (ssh.AuthMethod, error) {
	keyData, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(keyData)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return ssh.PublicKeys(signer), nil
}

func (b *Backend) Name() string { return "ssh" }

// NewReader opens path starting at offset.
func (b *Backend) NewReader(ctx context.Context, p string, offset int64) (streamio.Stream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := b.sftpClient.Open(b.fullPath(p))
	if err != nil {
		return nil, b.translateError(err, p)
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("ssh: seeking to offset: %w", err)
		}
	}
	return f, nil
}

// NewWriter opens path for writing. SFTP has no native append mode for an
// arbitrary remote file, so append reopens and seeks to the end.
func (b *Backend) NewWriter(ctx context.Context, p string, append bool) (streamio.Stream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath := b.fullPath(p)
	if err := b.sftpClient.MkdirAll(path.Dir(fullPath)); err != nil {
		return nil, fmt.Errorf("ssh: creating directory: %w", err)
	}

	f, err := b.sftpClient.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE)
	if err != nil {
		return nil, b.translateError(err, p)
	}
	if append {
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("ssh: seeking to end: %w", err)
		}
	} else if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("ssh: truncating: %w", err)
	}
	return f, nil
}

// Exists checks if a path exists.
func (b *Backend) Exists(ctx context.Context, p string) (bool, error) {
	if err := b.checkClosed(); err != nil {
		return false, err
	}
	_, err := b.sftpClient.Stat(b.fullPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, b.translateError(err, p)
	}
	return true, nil
}

// Delete removes a path. Idempotent.
func (b *Backend) Delete(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	err := b.sftpClient.Remove(b.fullPath(p))
	if err != nil && !os.IsNotExist(err) {
		return b.translateError(err, p)
	}
	return nil
}

// List lists paths under prefix.
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}

	fullPrefix := b.fullPath(prefix)
	dir := fullPrefix
	namePrefix := ""
	if info, err := b.sftpClient.Stat(fullPrefix); err != nil || !info.IsDir() {
		dir = path.Dir(fullPrefix)
		namePrefix = path.Base(fullPrefix)
	}

	var paths []string
	if err := b.walkDir(ctx, dir, namePrefix, &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

func (b *Backend) walkDir(ctx context.Context, dir, namePrefix string, paths *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := b.sftpClient.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("ssh: listing directory: %w", err)
	}
	for _, entry := range entries {
		if namePrefix != "" && !strings.HasPrefix(entry.Name(), namePrefix) {
			continue
		}
		entryPath := path.Join(dir, entry.Name())
		relPath := strings.TrimPrefix(strings.TrimPrefix(entryPath, b.config.Root), "/")
		if entry.IsDir() {
			if err := b.walkDir(ctx, entryPath, "", paths); err != nil {
				return err
			}
		} else {
			*paths = append(*paths, relPath)
		}
	}
	return nil
}

// Close tears down the SFTP session and underlying SSH connection.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if b.sftpClient != nil {
		if err := b.sftpClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.sshClient != nil {
		if err := b.sshClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("ssh: close errors: %v", errs)
	}
	return nil
}

// Stat returns metadata about an object.
func (b *Backend) Stat(ctx context.Context, p string) (streamio.ObjectInfo, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	info, err := b.sftpClient.Stat(b.fullPath(p))
	if err != nil {
		return nil, b.translateError(err, p)
	}
	return &streamio.BasicObjectInfo{
		ObjectPath:    p,
		ObjectSize:    info.Size(),
		ObjectModTime: info.ModTime(),
		ObjectIsDir:   info.IsDir(),
	}, nil
}

// Mkdir creates a directory and any missing parents.
func (b *Backend) Mkdir(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := b.sftpClient.MkdirAll(b.fullPath(p)); err != nil {
		return fmt.Errorf("ssh: creating directory: %w", err)
	}
	return nil
}

// Rmdir removes an empty directory.
func (b *Backend) Rmdir(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	fullPath := b.fullPath(p)
	entries, err := b.sftpClient.ReadDir(fullPath)
	if err != nil {
		return b.translateError(err, p)
	}
	if len(entries) > 0 {
		return fmt.Errorf("ssh: directory not empty: %s", p)
	}
	if err := b.sftpClient.RemoveDirectory(fullPath); err != nil {
		return b.translateError(err, p)
	}
	return nil
}

// Copy streams src to dst through the client; SFTP has no server-side copy.
func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	srcPath, dstPath := b.fullPath(src), b.fullPath(dst)
	if err := b.sftpClient.MkdirAll(path.Dir(dstPath)); err != nil {
		return fmt.Errorf("ssh: creating directory: %w", err)
	}

	srcFile, err := b.sftpClient.Open(srcPath)
	if err != nil {
		return b.translateError(err, src)
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := b.sftpClient.Create(dstPath)
	if err != nil {
		return b.translateError(err, dst)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("ssh: copying file: %w", err)
	}
	return nil
}

// Move renames src to dst, falling back to copy-then-delete.
func (b *Backend) Move(ctx context.Context, src, dst string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	srcPath, dstPath := b.fullPath(src), b.fullPath(dst)
	if err := b.sftpClient.MkdirAll(path.Dir(dstPath)); err != nil {
		return fmt.Errorf("ssh: creating directory: %w", err)
	}
	if err := b.sftpClient.Rename(srcPath, dstPath); err == nil {
		return nil
	}
	if err := b.Copy(ctx, src, dst); err != nil {
		return err
	}
	return b.Delete(ctx, src)
}

// Features reports SFTP capabilities.
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

func (b *Backend) fullPath(p string) string {
	if b.config.Root == "" {
		return p
	}
	return path.Join(b.config.Root, p)
}

func (b *Backend) checkClosed() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return streamio.ErrClosed
	}
	return nil
}

func (b *Backend) translateError(err error, p string) error {
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		return streamio.ErrNotFound
	}
	if os.IsPermission(err) {
		return streamio.ErrPermissionDenied
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		if os.IsNotExist(pathErr.Err) {
			return streamio.ErrNotFound
		}
		if os.IsPermission(pathErr.Err) {
			return streamio.ErrPermissionDenied
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return streamio.NewTransportError("ssh", err)
	}
	return fmt.Errorf("ssh: error for %q: %w", p, err)
}

var _ streamio.ExtendedBackend = (*Backend)(nil)
