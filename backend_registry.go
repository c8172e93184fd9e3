package streamio

import (
	"fmt"
	"sort"
	"sync"
)

// BackendFactory builds a Backend from a parsed Location plus
// backend-specific transport_params. Each transport subpackage registers
// its own factory from an init() function, the same publication pattern
// RegisterCompressor uses for codecs. This indirection exists because the
// dispatcher cannot import the transport packages directly: they already
// import this package for the Backend/Stream/error types, and importing
// them back here would be a cycle.
type BackendFactory func(loc Location, params map[string]any) (Backend, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]BackendFactory)
)

// RegisterBackend registers a backend factory under name ("local", "http",
// "s3", "gcs", "webhdfs", "ssh"). Typically called from a transport
// package's init(). Panics on a nil factory or a double registration for
// the same name, mirroring the teacher's backend Register.
func RegisterBackend(name string, factory BackendFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()

	if factory == nil {
		panic("streamio: RegisterBackend factory is nil")
	}
	if _, dup := backends[name]; dup {
		panic("streamio: RegisterBackend called twice for backend " + name)
	}
	backends[name] = factory
}

// OpenBackend opens a backend by name given an already-parsed Location and
// backend-specific transport_params. This is the lower-level entry point
// for callers that already know which backend they want and don't need
// URI dispatch; Open is built on top of it. Requires the matching
// transport package to have been imported (for its init()'s registration
// side effect) somewhere in the program.
func OpenBackend(name string, loc Location, params map[string]any) (Backend, error) {
	backendsMu.RLock()
	factory, ok := backends[name]
	backendsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s (is its transport package imported?)", ErrUnsupportedScheme, name)
	}
	return factory(loc, params)
}

// RegisteredBackends returns a sorted list of registered backend names.
func RegisteredBackends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBackendRegistered returns true if name has a registered factory.
func IsBackendRegistered(name string) bool {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// UnregisterBackend removes a registered backend factory. Primarily
// useful for testing.
func UnregisterBackend(name string) bool {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, ok := backends[name]; ok {
		delete(backends, name)
		return true
	}
	return false
}
