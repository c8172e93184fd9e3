package streamio_test

import (
	"bufio"
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/flowstore/streamio"
	_ "github.com/flowstore/streamio/compress/gzip"
	_ "github.com/flowstore/streamio/text"
	_ "github.com/flowstore/streamio/transport/local"
)

func TestIntegrationLocalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")

	w, err := streamio.Open("file://"+path, streamio.Mode{Direction: streamio.Write})
	if err != nil {
		t.Fatalf("Open for write failed: %v", err)
	}
	lines := []string{"one", "two", "three"}
	for _, line := range lines {
		if _, err := w.Write([]byte(line + "\n")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := streamio.Open("file://"+path, streamio.Mode{Direction: streamio.Read})
	if err != nil {
		t.Fatalf("Open for read failed: %v", err)
	}
	defer func() { _ = r.Close() }()

	var got []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(got) != len(lines) {
		t.Fatalf("got %d lines, want %d", len(got), len(lines))
	}
	for i, line := range lines {
		if got[i] != line {
			t.Errorf("line %d = %q, want %q", i, got[i], line)
		}
	}
}

func TestIntegrationLocalGzipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt.gz")

	w, err := streamio.Open("file://"+path, streamio.Mode{Direction: streamio.Write})
	if err != nil {
		t.Fatalf("Open for write failed: %v", err)
	}
	payload := bytes.Repeat([]byte("compress me\n"), 100)
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := streamio.Open("file://"+path, streamio.Mode{Direction: streamio.Read})
	if err != nil {
		t.Fatalf("Open for read failed: %v", err)
	}
	defer func() { _ = r.Close() }()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), payload) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", buf.Len(), len(payload))
	}
}

func TestIntegrationRegisteredBackends(t *testing.T) {
	if !streamio.IsBackendRegistered("local") {
		t.Fatal(`"local" backend not registered; is transport/local blank-imported?`)
	}
	names := streamio.RegisteredBackends()
	found := false
	for _, name := range names {
		if name == "local" {
			found = true
		}
	}
	if !found {
		t.Errorf("RegisteredBackends() = %v, want it to contain \"local\"", names)
	}
}

func TestIntegrationLocalTextModeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")

	w, err := streamio.Open("file://"+path, streamio.Mode{Direction: streamio.Write, Text: true})
	if err != nil {
		t.Fatalf("Open for write failed: %v", err)
	}
	if _, err := w.Write([]byte("crlf line\r\nsecond line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := streamio.Open("file://"+path, streamio.Mode{Direction: streamio.Read, Text: true})
	if err != nil {
		t.Fatalf("Open for read failed: %v", err)
	}
	defer func() { _ = r.Close() }()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	// The writer passed "\r\n" through (its Newline is "", the no-op
	// default); the reader normalizes universal newlines back to "\n".
	want := "crlf line\nsecond line\n"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestIntegrationBypassMarker(t *testing.T) {
	var buf bytes.Buffer
	s, err := streamio.Open(&buf, streamio.Mode{Direction: streamio.Write})
	if err != nil {
		t.Fatalf("Open with a bypass stream failed: %v", err)
	}
	if _, err := s.Write([]byte("straight through")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if buf.String() != "straight through" {
		t.Errorf("got %q, want %q", buf.String(), "straight through")
	}
}

func TestIntegrationUnsupportedScheme(t *testing.T) {
	_, err := streamio.Open("hdfs://namenode/path/to/file", streamio.Mode{Direction: streamio.Read})
	if err == nil {
		t.Fatal("expected an error opening an hdfs:// URI, got nil")
	}
	if !streamio.IsNotSupported(err) {
		t.Errorf("expected IsNotSupported(err), got %v", err)
	}
}
