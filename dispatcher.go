package streamio

import (
	"context"
	"fmt"
	"io"
)

// Open is the single entry point. uri is ordinarily a string URI, but per
// §4.B rule 1 it may also be anything that already behaves like an open
// stream (implements io.Reader and/or io.Writer) — in that case transport
// selection is bypassed entirely and uri itself becomes the raw stream
// (see asBypassStream). Otherwise Open parses uri into a Location,
// resolves the matching registered Backend, and opens a reader or writer
// per mode.
//
// Either way, the raw stream is then transparently layered with a
// compression codec chosen by the path's file extension (unless
// WithIgnoreExt is set) and, when mode.Text is set, the text-decoding
// layer. The returned Stream's Close tears down every layer it opened,
// down to and including the backend, so callers never need to reach for
// the backend separately. A bypassed stream's own Close is still called
// exactly once, but Open never owns more of it than that: there is no
// backend underneath to close.
func Open(uri any, mode Mode, opts ...OpenOption) (Stream, error) {
	cfg := applyOpenOptions(opts...)

	if raw, ok := asBypassStream(uri); ok {
		return layerStream(raw, "", mode, cfg, nil)
	}

	path, ok := uri.(string)
	if !ok {
		return nil, fmt.Errorf("streamio: uri must be a string or an already-open stream: %w", ErrInvalidPath)
	}

	loc, err := ParseLocation(path)
	if err != nil {
		return nil, err
	}

	name := locationBackendName(loc)
	if name == "" {
		return nil, ErrUnsupportedScheme
	}
	if name == "hdfs" {
		return nil, fmt.Errorf("streamio: hdfs:// is native HDFS RPC, out of scope here; shell out to the hdfs CLI directly: %w", ErrNotSupported)
	}

	backend, err := OpenBackend(name, loc, backendParams(cfg, name))
	if err != nil {
		return nil, err
	}
	closeBackendOnErr := true
	defer func() {
		if closeBackendOnErr {
			_ = backend.Close()
		}
	}()

	backendPath := locationPath(loc)
	ctx := context.Background()

	var raw Stream
	switch mode.Direction {
	case Write:
		raw, err = backend.NewWriter(ctx, backendPath, false)
	case Append:
		raw, err = backend.NewWriter(ctx, backendPath, true)
	default:
		raw, err = backend.NewReader(ctx, backendPath, 0)
	}
	if err != nil {
		return nil, err
	}

	stream, err := layerStream(raw, backendPath, mode, cfg, backend)
	if err != nil {
		return nil, err
	}
	closeBackendOnErr = false
	return stream, nil
}

// asBypassStream implements §4.B rule 1: if uri already exposes a
// file-like protocol (io.Reader and/or io.Writer), it is the bypass
// marker, and is wrapped as a Stream directly rather than being parsed as
// a URI. The wrapped direction(s) not actually present on uri return
// ErrNotSupported, mirroring how a backend-returned Stream only supports
// Seek when the backend does.
func asBypassStream(uri any) (Stream, bool) {
	r, isReader := uri.(io.Reader)
	w, isWriter := uri.(io.Writer)
	if !isReader && !isWriter {
		return nil, false
	}
	c, _ := uri.(io.Closer)
	return &bypassStream{r: r, w: w, c: c}, true
}

// bypassStream adapts a caller-supplied reader/writer/closer combination
// (of which at least one of r, w is non-nil) to the Stream contract.
type bypassStream struct {
	r io.Reader
	w io.Writer
	c io.Closer
}

func (b *bypassStream) Read(p []byte) (int, error) {
	if b.r == nil {
		return 0, ErrNotSupported
	}
	return b.r.Read(p)
}

func (b *bypassStream) Write(p []byte) (int, error) {
	if b.w == nil {
		return 0, ErrNotSupported
	}
	return b.w.Write(p)
}

func (b *bypassStream) Close() error {
	if b.c == nil {
		return nil
	}
	return b.c.Close()
}

// layerStream implements §4.L steps 4-6: wrap raw with a compression codec
// chosen by path's extension (unless cfg.IgnoreExt, or path is empty as it
// is for a bypassed stream with no recognizable path component), then with
// the text layer when mode.Text, then hand back a Stream whose Close tears
// down every layer plus backend (nil for a bypassed stream, in which case
// Close stops at raw).
func layerStream(raw Stream, path string, mode Mode, cfg *OpenConfig, backend Backend) (Stream, error) {
	stream := raw
	if !cfg.IgnoreExt && path != "" {
		if _, factory, ok := StripCompressionSuffix(path); ok {
			wrapped, cerr := factory(raw, mode)
			if cerr != nil {
				_ = raw.Close()
				return nil, cerr
			}
			stream = wrapped
		}
	}

	if mode.Text {
		if textWrapFunc == nil {
			_ = stream.Close()
			return nil, fmt.Errorf("streamio: text mode requested but no text layer registered; blank import github.com/flowstore/streamio/text: %w", ErrNotSupported)
		}
		wrapped, terr := textWrapFunc(stream, textMode(mode, cfg))
		if terr != nil {
			_ = stream.Close()
			return nil, terr
		}
		stream = wrapped
	}

	return &dispatchedStream{Stream: stream, backend: backend}, nil
}

// dispatchedStream closes the codec/text/backend-stream chain and then the
// backend itself (if any), so a single Stream.Close from Open tears down
// everything the call opened (connection pools included). backend is nil
// for a bypassed stream, since Open never opened one.
type dispatchedStream struct {
	Stream
	backend Backend
}

func (s *dispatchedStream) Close() error {
	err := s.Stream.Close()
	if s.backend == nil {
		return err
	}
	if berr := s.backend.Close(); err == nil {
		err = berr
	}
	return err
}

// locationBackendName maps a parsed Location to its registered backend
// name. Empty means the Location type isn't recognized at all (should be
// unreachable given ParseLocation's own scheme table).
func locationBackendName(loc Location) string {
	switch loc.(type) {
	case Local:
		return "local"
	case HTTP:
		return "http"
	case S3:
		return "s3"
	case GCS:
		return "gcs"
	case WebHdfs:
		return "webhdfs"
	case SSH:
		return "ssh"
	case HDFS:
		return "hdfs"
	default:
		return ""
	}
}

// locationPath extracts the backend-relative path (or, for HTTP, the full
// URL) a Backend's NewReader/NewWriter should be called with.
func locationPath(loc Location) string {
	switch l := loc.(type) {
	case Local:
		return l.Path
	case HTTP:
		return l.URL
	case S3:
		return l.Key
	case GCS:
		return l.Blob
	case WebHdfs:
		return l.Path
	case SSH:
		return l.Path
	case HDFS:
		return l.Path
	default:
		return ""
	}
}

// textMode overlays the encoding/newline/errors options passed to Open
// (which come in through OpenOption, since ParseMode's short-form strings
// like "rt" have no syntax for them) onto whatever Mode already carries.
func textMode(mode Mode, cfg *OpenConfig) Mode {
	if cfg.Encoding != "" {
		mode.Encoding = cfg.Encoding
	}
	if cfg.Newline != "" {
		mode.Newline = cfg.Newline
	}
	if cfg.Errors != "" {
		mode.Errors = cfg.Errors
	}
	return mode
}

// backendParams pulls the params sub-map registered for name out of
// OpenConfig.TransportParams, which is keyed by backend name (see
// OpenConfig.TransportParams's doc comment). Absent or mistyped entries
// yield nil, which every ConfigFromMap treats as "no overrides".
func backendParams(cfg *OpenConfig, name string) map[string]any {
	if cfg.TransportParams == nil {
		return nil
	}
	if v, ok := cfg.TransportParams[name].(map[string]any); ok {
		return v
	}
	return nil
}
