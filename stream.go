package streamio

import "io"

// Stream is what Open returns: a read/write/closeable byte stream that may
// additionally support seeking. Every concrete stream type in this module
// (local files, S3/GCS readers and writers, codec wrappers, the text
// layer) implements at least io.ReadWriteCloser; Seek is only implemented
// by backends that support it (local, S3, GCS; SSH when the remote
// supports it) and otherwise absent from the type, so callers type-assert
// for io.Seeker rather than relying on a method that always errors.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

// SeekableStream is a Stream that also supports Seek, following
// io.Seeker's (offset, whence) contract. whence is one of io.SeekStart,
// io.SeekCurrent, io.SeekEnd.
type SeekableStream interface {
	Stream
	io.Seeker
}

// LineReader is implemented by streams that can efficiently scan for
// newline-delimited records without the caller re-buffering.
type LineReader interface {
	ReadLine() ([]byte, error)
}

// AsSeekable attempts to narrow s to a SeekableStream.
func AsSeekable(s Stream) (SeekableStream, bool) {
	ss, ok := s.(SeekableStream)
	return ss, ok
}
