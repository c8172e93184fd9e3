// Package text implements the host-language text-decoding layer that sits
// between a binary byte stream and a caller asking for text mode: newline
// translation and UTF-8 validity handling. It deliberately goes no further
// than that — there is no multi-codepage transcoding here, since nothing in
// the retrieval pack carries a general text-encoding library
// (golang.org/x/text/encoding is absent); Go's standard library treats
// strings as UTF-8 natively, so "delegate to the host's standard text I/O"
// means: decode/encode UTF-8 with unicode/utf8, and let every other
// encoding name fail closed.
package text

import (
	"bytes"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/flowstore/streamio"
)

// Wrap layers the text decoding described by mode over raw. raw is owned by
// the returned Stream: closing the text stream closes raw. mode.Text must
// be true; Wrap panics otherwise, since callers are expected to check
// mode.Text before reaching for the text layer (see dispatcher.go).
func init() {
	streamio.RegisterTextLayer(Wrap)
}

func Wrap(raw streamio.Stream, mode streamio.Mode) (streamio.Stream, error) {
	if !mode.Text {
		panic("text: Wrap called with a binary mode")
	}
	if !isUTF8(mode.Encoding) {
		return nil, streamio.ErrNotSupported
	}
	switch mode.Errors {
	case "", "strict", "ignore", "replace":
	default:
		return nil, streamio.ErrInvalidMode
	}

	return &stream{
		raw:     raw,
		newline: mode.Newline,
		errors:  mode.Errors,
	}, nil
}

func isUTF8(encoding string) bool {
	switch encoding {
	case "", "utf-8", "utf8", "UTF-8", "UTF8":
		return true
	default:
		return false
	}
}

// stream is the text-mode Stream returned by Wrap. Reads are translated to
// universal newlines ("\n") and checked for well-formed UTF-8; writes
// translate "\n" to the configured newline. A stream owns raw: each Close
// call is passed on to raw.Close.
type stream struct {
	raw     streamio.Stream
	newline string
	errors  string

	mu      sync.Mutex
	pending []byte // decoded bytes not yet delivered to the caller's Read
	rawBuf  []byte // raw bytes read from the backend but not yet decoded
	eof     bool
}

func (s *stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.pending) == 0 && !s.eof {
		if err := s.fillLocked(); err != nil {
			return 0, err
		}
	}
	if len(s.pending) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// fillLocked reads one chunk from raw, decodes it, and appends the result
// to pending, applying newline translation and the UTF-8 error policy.
// Must be called with mu held.
func (s *stream) fillLocked() error {
	chunk := make([]byte, 32*1024)
	n, err := s.raw.Read(chunk)
	if n > 0 {
		s.rawBuf = append(s.rawBuf, chunk[:n]...)
	}
	if err != nil && err != io.EOF {
		return err
	}
	atEOF := err == io.EOF

	decodable := s.rawBuf
	if !atEOF {
		// Hold back a trailing byte sequence that might be an incomplete
		// rune or the first half of a "\r\n" pair, so it isn't decoded
		// prematurely.
		keep := trailingIncompleteLen(decodable)
		decodable = decodable[:len(decodable)-keep]
	}

	decoded, derr := decodeUTF8(decodable, s.errors)
	if derr != nil {
		return derr
	}
	s.rawBuf = s.rawBuf[len(decodable):]
	s.pending = append(s.pending, normalizeNewlinesForRead(decoded, s.newline)...)

	if atEOF {
		if len(s.rawBuf) > 0 {
			decoded, derr := decodeUTF8(s.rawBuf, s.errors)
			if derr != nil {
				return derr
			}
			s.pending = append(s.pending, normalizeNewlinesForRead(decoded, s.newline)...)
		}
		s.eof = true
	}
	return nil
}

// trailingIncompleteLen reports how many trailing bytes of b should be held
// back from decoding: an incomplete UTF-8 rune, or a lone trailing "\r"
// that might be the start of a "\r\n" pair.
func trailingIncompleteLen(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	if b[len(b)-1] == '\r' {
		return 1
	}
	// Back up over the start of a truncated multi-byte rune, if any.
	for i := 1; i <= 4 && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return i
			}
			return 0
		}
	}
	return 0
}

func decodeUTF8(b []byte, errPolicy string) ([]byte, error) {
	if utf8.Valid(b) {
		return b, nil
	}
	switch errPolicy {
	case "strict", "":
		return nil, streamio.ErrInvalidMode
	case "ignore":
		return dropInvalid(b), nil
	case "replace":
		return replaceInvalid(b), nil
	default:
		return nil, streamio.ErrInvalidMode
	}
}

func dropInvalid(b []byte) []byte {
	var out []byte
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			b = b[1:]
			continue
		}
		out = append(out, b[:size]...)
		b = b[size:]
	}
	return out
}

func replaceInvalid(b []byte) []byte {
	var out []byte
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			out = utf8.AppendRune(out, utf8.RuneError)
			b = b[1:]
			continue
		}
		out = append(out, b[:size]...)
		b = b[size:]
	}
	return out
}

// normalizeNewlinesForRead translates newlines to "\n" when newline is ""
// (universal newlines). A non-empty newline disables translation: the
// caller asked for a specific line ending and gets raw bytes back.
func normalizeNewlinesForRead(b []byte, newline string) []byte {
	if newline != "" {
		return b
	}
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	return b
}

func (s *stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(p)
	out := p
	if !utf8.Valid(out) {
		switch s.errors {
		case "ignore":
			out = dropInvalid(out)
		case "replace":
			out = replaceInvalid(out)
		default:
			return 0, streamio.ErrInvalidMode
		}
	}
	if s.newline != "" && s.newline != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(s.newline))
	}
	if _, err := s.raw.Write(out); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *stream) Close() error {
	return s.raw.Close()
}

var _ streamio.Stream = (*stream)(nil)
