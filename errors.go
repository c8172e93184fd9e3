package streamio

import (
	"errors"
	"fmt"
)

// Common errors returned by streamio transports and the dispatcher.
var (
	// ErrNotFound is returned when a path or object does not exist.
	ErrNotFound = errors.New("streamio: not found")

	// ErrAlreadyExists is returned when attempting to create a path that
	// already exists, if the backend does not support overwriting.
	ErrAlreadyExists = errors.New("streamio: already exists")

	// ErrPermissionDenied is returned when access to a path is denied.
	ErrPermissionDenied = errors.New("streamio: permission denied")

	// ErrClosed is returned by operations performed on a stream after Close.
	ErrClosed = errors.New("streamio: stream closed")

	// ErrNotSupported is returned when an operation (seek, append, server-side
	// copy, ...) is not available on the selected backend.
	ErrNotSupported = errors.New("streamio: operation not supported")

	// ErrMalformedURI is returned when a location string with a known
	// scheme lacks a scheme-specific required field (bucket, host, ...) or
	// carries a non-numeric port. Input without a valid "scheme://" prefix
	// is not an error: it is treated as a local path.
	ErrMalformedURI = errors.New("streamio: malformed uri")

	// ErrUnsupportedScheme is returned when a scheme is recognized by the
	// grammar but no backend is compiled in to handle it.
	ErrUnsupportedScheme = errors.New("streamio: unsupported scheme")

	// ErrInvalidMode is returned when a mode string is unparseable, or is
	// inconsistent with the selected backend (e.g. append on HTTP).
	ErrInvalidMode = errors.New("streamio: invalid mode")

	// ErrLimitExceeded is returned when a service-defined limit is crossed:
	// more than 10000 multipart parts, a single-part upload over 5 GiB, etc.
	ErrLimitExceeded = errors.New("streamio: limit exceeded")

	// ErrInvalidPath is returned when a path is empty or attempts to escape
	// a backend's configured root via "..".
	ErrInvalidPath = errors.New("streamio: invalid path")
)

// TransportError wraps a network, auth, or remote-service failure with the
// identifier of the backend that produced it (s3, gcs, http, ssh, webhdfs).
type TransportError struct {
	Backend string
	Cause   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("streamio: %s transport error: %v", e.Backend, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// NewTransportError wraps cause as a *TransportError attributed to backend.
// Returns nil if cause is nil, so it is safe to use as `return NewTransportError(name, err)`.
func NewTransportError(backend string, cause error) error {
	if cause == nil {
		return nil
	}
	return &TransportError{Backend: backend, Cause: cause}
}

// IsNotFound returns true if the error indicates a path was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPermissionDenied returns true if the error indicates permission was denied.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsNotSupported returns true if the error indicates an unsupported operation.
func IsNotSupported(err error) bool {
	return errors.Is(err, ErrNotSupported)
}

// IsMalformedURI returns true if the error originated from URI parsing.
func IsMalformedURI(err error) bool {
	return errors.Is(err, ErrMalformedURI)
}

// IsInvalidPath returns true if the error indicates a rejected path.
func IsInvalidPath(err error) bool {
	return errors.Is(err, ErrInvalidPath)
}
