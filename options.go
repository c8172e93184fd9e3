package streamio

import (
	"log/slog"

	"github.com/grokify/mogo/log/slogutil"
)

// OpenConfig holds the options accepted by Open: buffering, text-mode
// encoding/newline/error handling, extension-based codec selection, and
// backend-specific transport parameters. Unknown transport_params keys are
// ignored rather than rejected; no log record is written for them.
type OpenConfig struct {
	Buffering int

	Encoding string
	Newline  string
	Errors   string

	// IgnoreExt disables extension-based codec selection: the raw backend
	// stream is returned unwrapped even if its path carries a registered
	// extension.
	IgnoreExt bool

	// TransportParams carries backend-specific configuration, keyed by
	// backend name ("s3", "http", "webhdfs", "ssh"). Keys not recognized
	// by the selected backend are ignored without a log record; where a
	// key duplicates a value the location itself carries (credentials,
	// endpoint), the location's value wins, also without a log record.
	TransportParams map[string]any

	// Logger is stored for WARN-level diagnostics; Open and the built-in
	// backends write no records to it. Defaults to a no-op logger so the
	// library stays silent unless the caller opts in, matching the
	// teacher's sync.Options.Logger / opts.logger() pattern.
	Logger *slog.Logger
}

// OpenOption configures an OpenConfig.
type OpenOption func(*OpenConfig)

// WithIgnoreExt disables extension-based codec selection.
func WithIgnoreExt(ignore bool) OpenOption {
	return func(c *OpenConfig) { c.IgnoreExt = ignore }
}

// WithTransportParams attaches backend-specific configuration.
func WithTransportParams(params map[string]any) OpenOption {
	return func(c *OpenConfig) { c.TransportParams = params }
}

// WithEncoding sets the text-mode character encoding (ignored for binary
// modes).
func WithEncoding(encoding string) OpenOption {
	return func(c *OpenConfig) { c.Encoding = encoding }
}

// WithNewline sets the text-mode newline translation policy.
func WithNewline(newline string) OpenOption {
	return func(c *OpenConfig) { c.Newline = newline }
}

// WithErrors sets the text-mode decode-error policy ("strict", "ignore",
// "replace").
func WithErrors(errors string) OpenOption {
	return func(c *OpenConfig) { c.Errors = errors }
}

// WithLogger attaches a logger for WARN-level diagnostics.
func WithLogger(logger *slog.Logger) OpenOption {
	return func(c *OpenConfig) { c.Logger = logger }
}

// applyOpenOptions folds opts into a ready-to-use OpenConfig.
func applyOpenOptions(opts ...OpenOption) *OpenConfig {
	cfg := &OpenConfig{Logger: slogutil.Null()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slogutil.Null()
	}
	return cfg
}

// stringParam reads a string-typed transport param by key, returning ok=false
// if absent or of the wrong type.
func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// intParam reads an int-typed transport param, accepting both int and
// int64 (transport_params is often built up from JSON/CLI parsing, which
// favors one or the other).
func intParam(params map[string]any, key string) (int, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

// boolParam reads a bool-typed transport param.
func boolParam(params map[string]any, key string) (bool, bool) {
	v, ok := params[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// warnUnknownParams logs a WARN record for every key in params not present
// in recognized, so unknown transport params are ignored rather than
// rejected, with a trace left for diagnosis.
func warnUnknownParams(logger *slog.Logger, backend string, params map[string]any, recognized map[string]bool) {
	for key := range params {
		if !recognized[key] {
			logger.Warn("streamio: discarding unrecognized transport param",
				slog.String("backend", backend),
				slog.String("key", key))
		}
	}
}
