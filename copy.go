package streamio

import (
	"context"
	"io"
)

// CopyPath copies an object from src to dst, potentially across different
// backends. This is a client-side copy that streams data through the
// caller. If srcBackend and dstBackend are the same ExtendedBackend with
// Copy support, prefer ExtendedBackend.Copy for a server-side copy
// instead, or call SmartCopy which does that automatically.
func CopyPath(ctx context.Context, srcBackend Backend, srcPath string, dstBackend Backend, dstPath string) error {
	r, err := srcBackend.NewReader(ctx, srcPath, 0)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	w, err := dstBackend.NewWriter(ctx, dstPath, false)
	if err != nil {
		return err
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// CopyPathWithHash copies an object and returns the hex-encoded hash of
// the copied data, computed as it streams through.
func CopyPathWithHash(ctx context.Context, srcBackend Backend, srcPath string, dstBackend Backend, dstPath string, hashType HashType) (string, error) {
	r, err := srcBackend.NewReader(ctx, srcPath, 0)
	if err != nil {
		return "", err
	}
	defer func() { _ = r.Close() }()

	w, err := dstBackend.NewWriter(ctx, dstPath, false)
	if err != nil {
		return "", err
	}

	h := NewHash(hashType)
	if h == nil {
		_ = w.Close()
		return "", ErrNotSupported
	}

	mw := io.MultiWriter(w, h)
	if _, err := io.Copy(mw, r); err != nil {
		_ = w.Close()
		return "", err
	}

	if err := w.Close(); err != nil {
		return "", err
	}

	return HashBytesFromSum(h.Sum(nil)), nil
}

// HashBytesFromSum renders a hash sum as a lowercase hex string.
func HashBytesFromSum(sum []byte) string {
	const hexChars = "0123456789abcdef"
	result := make([]byte, len(sum)*2)
	for i, b := range sum {
		result[i*2] = hexChars[b>>4]
		result[i*2+1] = hexChars[b&0x0f]
	}
	return string(result)
}

// SmartCopy attempts a server-side copy first (when src and dst are the
// same ExtendedBackend and it advertises Copy support), falling back to
// CopyPath's client-side streaming copy otherwise.
func SmartCopy(ctx context.Context, srcBackend Backend, srcPath string, dstBackend Backend, dstPath string) error {
	if srcBackend == dstBackend {
		if ext, ok := srcBackend.(ExtendedBackend); ok && ext.Features().Copy {
			err := ext.Copy(ctx, srcPath, dstPath)
			if err == nil || err != ErrNotSupported {
				return err
			}
		}
	}

	return CopyPath(ctx, srcBackend, srcPath, dstBackend, dstPath)
}
