package vision

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a backend. It is called once per Open.
type Factory func() (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend available under name. Backends register from an
// init function; registering the same name twice panics.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if f == nil {
		panic("vision: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("vision: Register called twice for backend " + name)
	}
	registry[name] = f
}

// Open constructs the named backend. It returns an error wrapping
// ErrBackendUnavailable when the backend is not registered or its factory
// fails.
func Open(name string) (Backend, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q not compiled in (have %v)", ErrBackendUnavailable, name, Backends())
	}
	b, err := f()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, name, err)
	}
	return b, nil
}

// Backends returns the sorted names of all registered backends.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
