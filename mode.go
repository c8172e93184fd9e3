package streamio

import "strings"

// Direction is the data-flow direction of a stream.
type Direction int

const (
	// Read opens a stream for reading.
	Read Direction = iota
	// Write opens a stream for writing, truncating any existing content.
	Write
	// Append opens a stream for writing, appending to existing content.
	Append
)

func (d Direction) String() string {
	switch d {
	case Read:
		return "read"
	case Write:
		return "write"
	case Append:
		return "append"
	default:
		return "unknown"
	}
}

// Mode is a parsed open-mode: a direction plus whether the stream carries
// text (decoded) or binary bytes, with the text-only attributes meaningful
// only when Text is true.
type Mode struct {
	Direction Direction
	Text      bool

	// Encoding names the text encoding to decode/encode with. Empty means
	// UTF-8. Only meaningful when Text is true.
	Encoding string

	// Newline controls newline translation: "" (universal), "\n", "\r", or
	// "\r\n". Only meaningful when Text is true.
	Newline string

	// Errors controls behavior on decode errors: "strict", "ignore", or
	// "replace". Only meaningful when Text is true.
	Errors string
}

// ParseMode parses a Python-`open`-style mode string such as "r", "rb",
// "w", "wb", "a", "ab", "rt", "r+". Binary ("b") and text ("t") are
// mutually exclusive; the default is text, matching the host convention
// that "r" alone means text-mode read.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		s = "r"
	}

	m := Mode{Text: true}
	sawDirection := false
	sawTextness := false

	for _, c := range s {
		switch c {
		case 'r':
			m.Direction = Read
			sawDirection = true
		case 'w':
			m.Direction = Write
			sawDirection = true
		case 'a':
			m.Direction = Append
			sawDirection = true
		case 'b':
			if sawTextness && m.Text {
				return Mode{}, ErrInvalidMode
			}
			m.Text = false
			sawTextness = true
		case 't':
			if sawTextness && !m.Text {
				return Mode{}, ErrInvalidMode
			}
			m.Text = true
			sawTextness = true
		case '+':
			// Read/write mode: not meaningful for an append-only remote
			// stream, but accepted for local-file parity; direction stays
			// whatever was already parsed.
		default:
			return Mode{}, ErrInvalidMode
		}
	}

	if !sawDirection {
		return Mode{}, ErrInvalidMode
	}

	return m, nil
}

// String renders the mode back to its short form, e.g. "rb", "w", "at".
func (m Mode) String() string {
	var b strings.Builder
	switch m.Direction {
	case Read:
		b.WriteByte('r')
	case Write:
		b.WriteByte('w')
	case Append:
		b.WriteByte('a')
	}
	if m.Text {
		b.WriteByte('t')
	} else {
		b.WriteByte('b')
	}
	return b.String()
}
