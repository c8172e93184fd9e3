package zstd

import (
	"bytes"
	"io"
	"testing"

	"github.com/flowstore/streamio"
)

func TestCodecRegisteredUnderZstExtension(t *testing.T) {
	factory, ok := streamio.LookupCompressor(".zst")
	if !ok {
		t.Fatal(".zst codec not registered")
	}

	buf := newTestWriteCloser()
	stream, err := factory(buf, streamio.Mode{Direction: streamio.Write})
	if err != nil {
		t.Fatalf("factory (write) failed: %v", err)
	}
	if _, err := stream.Write([]byte("payload")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	readBack := &testReadCloser{Reader: bytes.NewReader(buf.Bytes())}
	rstream, err := factory(readBack, streamio.Mode{Direction: streamio.Read})
	if err != nil {
		t.Fatalf("factory (read) failed: %v", err)
	}
	data, err := io.ReadAll(rstream)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("decompressed = %q, want %q", data, "payload")
	}
}

type testReadCloser struct {
	*bytes.Reader
}

func (t *testReadCloser) Write(p []byte) (int, error) { return 0, io.ErrClosedPipe }
func (t *testReadCloser) Close() error                { return nil }
