package text

import (
	"bytes"
	"io"
	"testing"

	"github.com/flowstore/streamio"
)

// fakeStream is an in-memory streamio.Stream backed by a bytes.Buffer, used
// to drive the text layer without a real backend.
type fakeStream struct {
	buf    *bytes.Buffer
	closed bool
}

func newFakeStream(data []byte) *fakeStream {
	return &fakeStream{buf: bytes.NewBuffer(data)}
}

func (f *fakeStream) Read(p []byte) (int, error)  { return f.buf.Read(p) }
func (f *fakeStream) Write(p []byte) (int, error) { return f.buf.Write(p) }
func (f *fakeStream) Close() error {
	f.closed = true
	return nil
}

func TestWrapRejectsBinaryMode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic wrapping a binary mode")
		}
	}()
	_, _ = Wrap(newFakeStream(nil), streamio.Mode{Text: false})
}

func TestWrapRejectsNonUTF8Encoding(t *testing.T) {
	_, err := Wrap(newFakeStream(nil), streamio.Mode{Text: true, Encoding: "iso-8859-1"})
	if err != streamio.ErrNotSupported {
		t.Fatalf("got err %v, want ErrNotSupported", err)
	}
}

func TestWrapUniversalNewlinesOnRead(t *testing.T) {
	raw := newFakeStream([]byte("one\r\ntwo\rthree\n"))
	s, err := Wrap(raw, streamio.Mode{Text: true})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	got, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	want := "one\ntwo\nthree\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWrapExplicitNewlinePassesReadThrough(t *testing.T) {
	raw := newFakeStream([]byte("a\r\nb"))
	s, err := Wrap(raw, streamio.Mode{Text: true, Newline: "\r\n"})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	got, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "a\r\nb" {
		t.Errorf("got %q, want raw passthrough %q", got, "a\r\nb")
	}
}

func TestWrapWriteTranslatesNewline(t *testing.T) {
	raw := newFakeStream(nil)
	s, err := Wrap(raw, streamio.Mode{Text: true, Newline: "\r\n"})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	if _, err := s.Write([]byte("line1\nline2\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got, want := raw.buf.String(), "line1\r\nline2\r\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWrapStrictErrorsOnInvalidUTF8(t *testing.T) {
	raw := newFakeStream([]byte{0xff, 0xfe, 0xfd})
	s, err := Wrap(raw, streamio.Mode{Text: true})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	if _, err := io.ReadAll(s); err != streamio.ErrInvalidMode {
		t.Fatalf("got err %v, want ErrInvalidMode", err)
	}
}

func TestWrapReplaceInvalidUTF8(t *testing.T) {
	raw := newFakeStream([]byte{'a', 0xff, 'b'})
	s, err := Wrap(raw, streamio.Mode{Text: true, Errors: "replace"})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	got, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	want := "a�b"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWrapIgnoreInvalidUTF8(t *testing.T) {
	raw := newFakeStream([]byte{'a', 0xff, 'b'})
	s, err := Wrap(raw, streamio.Mode{Text: true, Errors: "ignore"})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	got, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "ab" {
		t.Errorf("got %q, want %q", got, "ab")
	}
}

func TestWrapCloseClosesRaw(t *testing.T) {
	raw := newFakeStream(nil)
	s, err := Wrap(raw, streamio.Mode{Text: true})
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !raw.closed {
		t.Errorf("Close did not close the underlying stream")
	}
}
