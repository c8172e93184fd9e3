package streamio

import (
	"io"
	"sort"
	"sync"
)

// CodecFactory wraps a raw stream with a compression codec for the given
// mode. On read, it returns a decompressing reader; on write, a compressing
// writer. Closing the returned stream must close raw as well.
type CodecFactory func(raw io.ReadWriteCloser, mode Mode) (io.ReadWriteCloser, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]CodecFactory)
)

// RegisterCompressor registers a codec factory under the given
// dot-prefixed extension (".gz", ".bz2", ".xz", ...). It is typically
// called from init() in codec packages, following the same publication
// pattern as a process-wide plugin registry: concurrent registration is
// safe, and readers observe either the pre- or post-write value.
//
// RegisterCompressor overwrites any previously registered factory for the
// same extension, treating re-registration as replacement rather than an
// error, so that applications can override a built-in codec.
func RegisterCompressor(ext string, factory CodecFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[ext] = factory
}

// LookupCompressor returns the factory registered for ext, if any.
func LookupCompressor(ext string) (CodecFactory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[ext]
	return f, ok
}

// RegisteredExtensions returns a sorted list of registered extensions.
func RegisteredExtensions() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// UnregisterCompressor removes a registered codec. Primarily useful for
// testing. Returns true if the extension was registered.
func UnregisterCompressor(ext string) bool {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[ext]; ok {
		delete(registry, ext)
		return true
	}
	return false
}

// StripCompressionSuffix checks whether path ends with a registered,
// case-sensitive dotted extension. If so, it returns the path with that
// suffix removed along with the matching factory. Otherwise it returns
// path unchanged and ok=false.
//
// Longer extensions are checked first so that a hypothetical ".tar.gz"
// registration (if ever added) would not be shadowed by a shorter ".gz".
func StripCompressionSuffix(path string) (inner string, factory CodecFactory, ok bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var bestExt string
	for ext := range registry {
		if len(ext) <= len(bestExt) {
			continue
		}
		if hasSuffix(path, ext) {
			bestExt = ext
		}
	}
	if bestExt == "" {
		return path, nil, false
	}
	return path[:len(path)-len(bestExt)], registry[bestExt], true
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
