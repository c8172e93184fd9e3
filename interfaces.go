package streamio

import "context"

// Backend is the capability every transport (local, http, s3, gcs, webhdfs,
// ssh) must provide so the Dispatcher (§4.L) can compose it with a codec
// and, for text mode, the text layer. It is the direct descendant of the
// teacher's storage-backend interface, narrowed to return plain Stream
// values (no per-call WriterOption/ReaderOption — backend-wide behavior is
// configured once, from transport_params, when the backend is constructed).
type Backend interface {
	// NewReader opens path for reading from the given byte offset (0 for
	// the common case). Returns ErrNotFound if the path does not exist.
	NewReader(ctx context.Context, path string, offset int64) (Stream, error)

	// NewWriter opens path for writing. append controls whether existing
	// content (if any) is preserved and written-after, or truncated.
	NewWriter(ctx context.Context, path string, append bool) (Stream, error)

	// Exists checks whether path refers to an existing object.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes path. Returns nil if path does not exist (idempotent).
	Delete(ctx context.Context, path string) error

	// List lists paths with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Name identifies the backend for error messages and logging ("local",
	// "http", "s3", "gcs", "webhdfs", "ssh").
	Name() string

	// Close releases any resources (connections, client handles) held by
	// the backend. Idempotent.
	Close() error
}

// SeekableBackend is implemented by backends whose readers/writers support
// random-access positioning (local, HTTP, S3, GCS, memory).
type SeekableBackend interface {
	Backend
	// NewSeekableReader is like NewReader but the returned stream also
	// implements io.Seeker.
	NewSeekableReader(ctx context.Context, path string) (SeekableStream, error)
}
