package streamio_test

import (
	"context"
	"io"
	"testing"

	"github.com/flowstore/streamio"
	"github.com/flowstore/streamio/transport/local"
)

type moveFunc func(ctx context.Context, src streamio.Backend, srcPath string, dst streamio.Backend, dstPath string) error

func testMoveOperation(t *testing.T, name string, moveFn moveFunc) {
	t.Helper()

	tmpDir := t.TempDir()
	backend := local.New(local.Config{Root: tmpDir})
	t.Cleanup(func() { _ = backend.Close() })

	ctx := context.Background()

	w, err := backend.NewWriter(ctx, "src.txt", false)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	srcData := []byte(name + " test data")
	if _, err := w.Write(srcData); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := moveFn(ctx, backend, "src.txt", backend, "dst.txt"); err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}

	r, err := backend.NewReader(ctx, "dst.txt", 0)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	dstData, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("reader.Close failed: %v", err)
	}
	if string(dstData) != string(srcData) {
		t.Errorf("%s: dst = %q, want %q", name, dstData, srcData)
	}

	exists, err := backend.Exists(ctx, "src.txt")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Errorf("source should not exist after %s", name)
	}
}

func TestMovePath(t *testing.T) {
	testMoveOperation(t, "MovePath", streamio.MovePath)
}

func TestSmartMove(t *testing.T) {
	testMoveOperation(t, "SmartMove", streamio.SmartMove)
}

func TestMovePathBetweenBackends(t *testing.T) {
	backend1 := local.New(local.Config{Root: t.TempDir()})
	backend2 := local.New(local.Config{Root: t.TempDir()})
	t.Cleanup(func() {
		_ = backend1.Close()
		_ = backend2.Close()
	})

	ctx := context.Background()

	w, err := backend1.NewWriter(ctx, "src.txt", false)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	srcData := []byte("cross-backend move")
	if _, err := w.Write(srcData); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := streamio.MovePath(ctx, backend1, "src.txt", backend2, "dst.txt"); err != nil {
		t.Fatalf("MovePath failed: %v", err)
	}

	r, err := backend2.NewReader(ctx, "dst.txt", 0)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	dstData, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	_ = r.Close()
	if string(dstData) != string(srcData) {
		t.Errorf("MovePath: dst = %q, want %q", dstData, srcData)
	}

	exists, err := backend1.Exists(ctx, "src.txt")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("source should not exist in backend1 after MovePath")
	}
}

func TestMovePathNotFound(t *testing.T) {
	backend := local.New(local.Config{Root: t.TempDir()})
	t.Cleanup(func() { _ = backend.Close() })

	ctx := context.Background()

	err := streamio.MovePath(ctx, backend, "nonexistent.txt", backend, "dst.txt")
	if !streamio.IsNotFound(err) {
		t.Errorf("MovePath error = %v, want ErrNotFound", err)
	}
}
