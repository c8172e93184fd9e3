package memory

import (
	"context"
	"io"
	"testing"

	"github.com/flowstore/streamio"
)

func TestNewWriter(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	w, err := backend.NewWriter(ctx, "test.txt", false)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	data := []byte("hello world")
	n, err := w.Write(data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(data) {
		t.Errorf("Write returned %d, want %d", n, len(data))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := backend.NewReader(ctx, "test.txt", 0)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	readData, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	_ = r.Close()

	if string(readData) != string(data) {
		t.Errorf("Read data = %q, want %q", readData, data)
	}
}

func TestNewWriterAppend(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	w, _ := backend.NewWriter(ctx, "test.txt", false)
	_, _ = w.Write([]byte("first "))
	_ = w.Close()

	w2, err := backend.NewWriter(ctx, "test.txt", true)
	if err != nil {
		t.Fatalf("NewWriter append failed: %v", err)
	}
	_, _ = w2.Write([]byte("second"))
	_ = w2.Close()

	r, _ := backend.NewReader(ctx, "test.txt", 0)
	data, _ := io.ReadAll(r)
	_ = r.Close()

	if string(data) != "first second" {
		t.Errorf("data = %q, want %q", data, "first second")
	}
}

func TestNewReader(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	w, _ := backend.NewWriter(ctx, "test.txt", false)
	_, _ = w.Write([]byte("hello world"))
	_ = w.Close()

	r, err := backend.NewReader(ctx, "test.txt", 0)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if string(data) != "hello world" {
		t.Errorf("Read data = %q, want %q", data, "hello world")
	}
}

func TestNewReaderNotFound(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	_, err := backend.NewReader(ctx, "nonexistent.txt", 0)
	if err != streamio.ErrNotFound {
		t.Errorf("NewReader error = %v, want ErrNotFound", err)
	}
}

func TestNewReaderWithOffset(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	w, _ := backend.NewWriter(ctx, "test.txt", false)
	_, _ = w.Write([]byte("hello world"))
	_ = w.Close()

	r, err := backend.NewReader(ctx, "test.txt", 6)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	data, _ := io.ReadAll(r)
	_ = r.Close()

	if string(data) != "world" {
		t.Errorf("Read data = %q, want %q", data, "world")
	}
}

func TestSeekableReader(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	w, _ := backend.NewWriter(ctx, "test.txt", false)
	_, _ = w.Write([]byte("hello world"))
	_ = w.Close()

	r, err := backend.NewSeekableReader(ctx, "test.txt")
	if err != nil {
		t.Fatalf("NewSeekableReader failed: %v", err)
	}
	defer func() { _ = r.Close() }()

	if _, err := r.Seek(6, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	data, _ := io.ReadAll(r)
	if string(data) != "world" {
		t.Errorf("data after seek = %q, want %q", data, "world")
	}
}

func TestExists(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	exists, err := backend.Exists(ctx, "test.txt")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Exists = true for non-existent file")
	}

	w, _ := backend.NewWriter(ctx, "test.txt", false)
	_, _ = w.Write([]byte("test"))
	_ = w.Close()

	exists, err = backend.Exists(ctx, "test.txt")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Exists = false for existing file")
	}
}

func TestDelete(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	w, _ := backend.NewWriter(ctx, "test.txt", false)
	_, _ = w.Write([]byte("test"))
	_ = w.Close()

	if err := backend.Delete(ctx, "test.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, _ := backend.Exists(ctx, "test.txt")
	if exists {
		t.Error("File should not exist after delete")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	if err := backend.Delete(ctx, "nonexistent.txt"); err != nil {
		t.Errorf("Delete of non-existent file failed: %v", err)
	}
}

func TestList(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	files := []string{"a.txt", "b.txt", "subdir/c.txt", "subdir/d.txt"}
	for _, f := range files {
		w, _ := backend.NewWriter(ctx, f, false)
		_, _ = w.Write([]byte("test"))
		_ = w.Close()
	}

	paths, err := backend.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(paths) != len(files) {
		t.Errorf("List returned %d paths, want %d", len(paths), len(files))
	}
}

func TestListWithPrefix(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	files := []string{"a.txt", "subdir/b.txt", "subdir/c.txt"}
	for _, f := range files {
		w, _ := backend.NewWriter(ctx, f, false)
		_, _ = w.Write([]byte("test"))
		_ = w.Close()
	}

	paths, err := backend.List(ctx, "subdir")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(paths) != 2 {
		t.Errorf("List returned %d paths, want 2", len(paths))
	}
}

func TestCloseRejectsFurtherOps(t *testing.T) {
	backend := New()

	ctx := context.Background()

	if err := backend.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := backend.NewWriter(ctx, "test.txt", false); err != streamio.ErrClosed {
		t.Errorf("NewWriter after Close error = %v, want ErrClosed", err)
	}
	if _, err := backend.NewReader(ctx, "test.txt", 0); err != streamio.ErrClosed {
		t.Errorf("NewReader after Close error = %v, want ErrClosed", err)
	}
	if _, err := backend.Exists(ctx, "test.txt"); err != streamio.ErrClosed {
		t.Errorf("Exists after Close error = %v, want ErrClosed", err)
	}
	if err := backend.Delete(ctx, "test.txt"); err != streamio.ErrClosed {
		t.Errorf("Delete after Close error = %v, want ErrClosed", err)
	}
	if _, err := backend.List(ctx, ""); err != streamio.ErrClosed {
		t.Errorf("List after Close error = %v, want ErrClosed", err)
	}
}

func TestStat(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	w, _ := backend.NewWriter(ctx, "test.txt", false)
	_, _ = w.Write([]byte("hello world"))
	_ = w.Close()

	info, err := backend.Stat(ctx, "test.txt")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	if info.Path() != "test.txt" {
		t.Errorf("Path = %q, want %q", info.Path(), "test.txt")
	}
	if info.Size() != 11 {
		t.Errorf("Size = %d, want %d", info.Size(), 11)
	}
	if info.IsDir() {
		t.Error("IsDir = true, want false")
	}
	if info.ModTime().IsZero() {
		t.Error("ModTime is zero")
	}
}

func TestStatNotFound(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	_, err := backend.Stat(ctx, "nonexistent.txt")
	if err != streamio.ErrNotFound {
		t.Errorf("Stat error = %v, want ErrNotFound", err)
	}
}

func TestMkdir(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	if err := backend.Mkdir(ctx, "a/b/c"); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	for _, dir := range []string{"a", "a/b", "a/b/c"} {
		info, err := backend.Stat(ctx, dir)
		if err != nil {
			t.Errorf("Stat(%q) failed: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%q should be a directory", dir)
		}
	}
}

func TestMkdirIdempotent(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	if err := backend.Mkdir(ctx, "mydir"); err != nil {
		t.Fatalf("First Mkdir failed: %v", err)
	}
	if err := backend.Mkdir(ctx, "mydir"); err != nil {
		t.Errorf("Second Mkdir failed: %v", err)
	}
}

func TestRmdir(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	_ = backend.Mkdir(ctx, "mydir")

	if err := backend.Rmdir(ctx, "mydir"); err != nil {
		t.Fatalf("Rmdir failed: %v", err)
	}

	_, err := backend.Stat(ctx, "mydir")
	if err != streamio.ErrNotFound {
		t.Error("Directory should not exist after Rmdir")
	}
}

func TestRmdirNotFound(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	err := backend.Rmdir(ctx, "nonexistent")
	if err != streamio.ErrNotFound {
		t.Errorf("Rmdir error = %v, want ErrNotFound", err)
	}
}

func TestRmdirNotEmpty(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	_ = backend.Mkdir(ctx, "mydir")
	w, _ := backend.NewWriter(ctx, "mydir/file.txt", false)
	_, _ = w.Write([]byte("test"))
	_ = w.Close()

	err := backend.Rmdir(ctx, "mydir")
	if err == nil {
		t.Error("Rmdir on non-empty directory should fail")
	}
}

func TestCopy(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	w, _ := backend.NewWriter(ctx, "src.txt", false)
	srcData := []byte("copy me")
	_, _ = w.Write(srcData)
	_ = w.Close()

	if err := backend.Copy(ctx, "src.txt", "dst.txt"); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}

	r, _ := backend.NewReader(ctx, "dst.txt", 0)
	dstData, _ := io.ReadAll(r)
	_ = r.Close()

	if string(dstData) != string(srcData) {
		t.Errorf("Copied data = %q, want %q", dstData, srcData)
	}

	exists, _ := backend.Exists(ctx, "src.txt")
	if !exists {
		t.Error("Source should still exist after copy")
	}
}

func TestCopyNotFound(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	err := backend.Copy(ctx, "nonexistent.txt", "dst.txt")
	if err != streamio.ErrNotFound {
		t.Errorf("Copy error = %v, want ErrNotFound", err)
	}
}

func TestMove(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	w, _ := backend.NewWriter(ctx, "src.txt", false)
	srcData := []byte("move me")
	_, _ = w.Write(srcData)
	_ = w.Close()

	if err := backend.Move(ctx, "src.txt", "dst.txt"); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	r, _ := backend.NewReader(ctx, "dst.txt", 0)
	dstData, _ := io.ReadAll(r)
	_ = r.Close()

	if string(dstData) != string(srcData) {
		t.Errorf("Moved data = %q, want %q", dstData, srcData)
	}

	exists, _ := backend.Exists(ctx, "src.txt")
	if exists {
		t.Error("Source should not exist after move")
	}
}

func TestMoveNotFound(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	err := backend.Move(ctx, "nonexistent.txt", "dst.txt")
	if err != streamio.ErrNotFound {
		t.Errorf("Move error = %v, want ErrNotFound", err)
	}
}

func TestFeatures(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	features := backend.Features()

	if !features.Copy || !features.Move || !features.Mkdir || !features.Rmdir || !features.Stat {
		t.Errorf("unexpected Features: %+v", features)
	}
	if !features.CanStream || !features.RangeRead || !features.ListPrefix {
		t.Errorf("unexpected Features: %+v", features)
	}
}

func TestSizeAndCount(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	if backend.Size() != 0 {
		t.Errorf("Initial Size = %d, want 0", backend.Size())
	}
	if backend.Count() != 0 {
		t.Errorf("Initial Count = %d, want 0", backend.Count())
	}

	w, _ := backend.NewWriter(ctx, "a.txt", false)
	_, _ = w.Write([]byte("hello"))
	_ = w.Close()

	w, _ = backend.NewWriter(ctx, "b.txt", false)
	_, _ = w.Write([]byte("world!"))
	_ = w.Close()

	if backend.Size() != 11 {
		t.Errorf("Size = %d, want 11", backend.Size())
	}
	if backend.Count() != 2 {
		t.Errorf("Count = %d, want 2", backend.Count())
	}
}

func TestClear(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	w, _ := backend.NewWriter(ctx, "a.txt", false)
	_, _ = w.Write([]byte("test"))
	_ = w.Close()

	w, _ = backend.NewWriter(ctx, "b.txt", false)
	_, _ = w.Write([]byte("test"))
	_ = w.Close()

	backend.Clear()

	if backend.Count() != 0 {
		t.Errorf("Count after Clear = %d, want 0", backend.Count())
	}
}

func TestContextCancellation(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := backend.NewWriter(ctx, "test.txt", false); err != context.Canceled {
		t.Errorf("NewWriter with cancelled context error = %v, want context.Canceled", err)
	}
	if _, err := backend.NewReader(ctx, "test.txt", 0); err != context.Canceled {
		t.Errorf("NewReader with cancelled context error = %v, want context.Canceled", err)
	}
	if _, err := backend.Exists(ctx, "test.txt"); err != context.Canceled {
		t.Errorf("Exists with cancelled context error = %v, want context.Canceled", err)
	}
	if err := backend.Delete(ctx, "test.txt"); err != context.Canceled {
		t.Errorf("Delete with cancelled context error = %v, want context.Canceled", err)
	}
	if _, err := backend.List(ctx, ""); err != context.Canceled {
		t.Errorf("List with cancelled context error = %v, want context.Canceled", err)
	}
	if _, err := backend.Stat(ctx, "test.txt"); err != context.Canceled {
		t.Errorf("Stat with cancelled context error = %v, want context.Canceled", err)
	}
}

func TestValidatePath(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	if _, err := backend.NewWriter(ctx, "", false); err != streamio.ErrInvalidPath {
		t.Errorf("Empty path error = %v, want ErrInvalidPath", err)
	}
	if _, err := backend.NewWriter(ctx, "../escape.txt", false); err != streamio.ErrInvalidPath {
		t.Errorf("Path traversal error = %v, want ErrInvalidPath", err)
	}
}

func TestExtendedBackendInterface(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	var _ streamio.ExtendedBackend = backend

	ext, ok := streamio.AsExtended(backend)
	if !ok {
		t.Error("AsExtended returned false for memory backend")
	}
	if ext == nil {
		t.Error("AsExtended returned nil for memory backend")
	}
}

func TestWriterClosed(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	w, _ := backend.NewWriter(ctx, "test.txt", false)
	_ = w.Close()

	_, err := w.Write([]byte("test"))
	if err != streamio.ErrClosed {
		t.Errorf("Write after Close error = %v, want ErrClosed", err)
	}
}

func TestReaderClosed(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	w, _ := backend.NewWriter(ctx, "test.txt", false)
	_, _ = w.Write([]byte("test"))
	_ = w.Close()

	r, _ := backend.NewReader(ctx, "test.txt", 0)
	_ = r.Close()

	buf := make([]byte, 10)
	_, err := r.Read(buf)
	if err != streamio.ErrClosed {
		t.Errorf("Read after Close error = %v, want ErrClosed", err)
	}
}

func TestPathNormalization(t *testing.T) {
	backend := New()
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	w, _ := backend.NewWriter(ctx, "/a/b/c.txt", false)
	_, _ = w.Write([]byte("test"))
	_ = w.Close()

	r, err := backend.NewReader(ctx, "a/b/c.txt", 0)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	data, _ := io.ReadAll(r)
	_ = r.Close()

	if string(data) != "test" {
		t.Errorf("Data = %q, want %q", data, "test")
	}
}
