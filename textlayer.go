package streamio

// textWrapFunc is installed by the text package's init(), the same
// self-registration idiom transport/*/register.go uses to avoid this
// package importing back into its own subpackages (text.Wrap needs Stream,
// Mode, and the error sentinels, so the root package can't import text
// directly without a cycle).
var textWrapFunc func(Stream, Mode) (Stream, error)

// RegisterTextLayer installs the implementation Open uses to wrap a binary
// stream in text mode. Callers that open anything in text mode must blank
// import github.com/flowstore/streamio/text for this to be non-nil, the
// same way a transport must be blank-imported to be dispatchable.
func RegisterTextLayer(fn func(Stream, Mode) (Stream, error)) {
	textWrapFunc = fn
}
