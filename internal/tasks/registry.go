package tasks

import (
	"fmt"
	"sort"
	"sync"
)

// BackendInfo reports whether a compiled-in backend can create follow-ups here
type BackendInfo struct {
	Name    string
	Enabled bool
}

// Registry holds the follow-up task backends compiled into the binary
type Registry struct {
	mu        sync.RWMutex
	factories map[string]BackendFactory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]BackendFactory)}
}

// Register makes a backend selectable by name in tasks.backend
func (r *Registry) Register(name string, factory BackendFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("task backend %s already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Create builds the named backend whether or not it is usable
func (r *Registry) Create(name string) (Backend, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("task backend %s not registered (have: %v)", name, r.List())
	}
	return factory(), nil
}

// FirstEnabled returns the first backend in preference order that is usable
// on this machine. Unknown names are skipped.
func (r *Registry) FirstEnabled(preference ...string) (Backend, bool) {
	for _, name := range preference {
		b, err := r.Create(name)
		if err != nil {
			continue
		}
		if b.IsEnabled() {
			return b, true
		}
	}
	return nil, false
}

// Describe builds every registered backend and reports whether it is enabled,
// sorted by name.
func (r *Registry) Describe() []BackendInfo {
	names := r.List()
	infos := make([]BackendInfo, 0, len(names))
	for _, name := range names {
		b, err := r.Create(name)
		if err != nil {
			continue
		}
		infos = append(infos, BackendInfo{Name: name, Enabled: b.IsEnabled()})
	}
	return infos
}

// List returns the registered backend names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Register adds a backend to the process-wide registry
func Register(name string, factory BackendFactory) error {
	return defaultRegistry.Register(name, factory)
}

// CreateBackend builds a backend from the process-wide registry
func CreateBackend(name string) (Backend, error) {
	return defaultRegistry.Create(name)
}

// ListBackends returns the names in the process-wide registry
func ListBackends() []string {
	return defaultRegistry.List()
}

// DescribeBackends reports availability for the process-wide registry
func DescribeBackends() []BackendInfo {
	return defaultRegistry.Describe()
}
