package module

import (
	"fmt"
	"sort"
	"sync"

	"github.com/allisson/webkms/internal/errors"
)

// ErrModuleNotFound indicates no module is registered under the requested name.
var ErrModuleNotFound = errors.Wrap(errors.ErrNotFound, "kms module not found")

// Resolver resolves a module by name.
type Resolver interface {
	Resolve(name string) (Module, error)
}

// Registry holds the modules available to keystores, keyed by name.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry creates a registry with the given modules.
func NewRegistry(modules ...Module) *Registry {
	r := &Registry{modules: make(map[string]Module, len(modules))}
	for _, m := range modules {
		r.modules[m.Name()] = m
	}
	return r
}

// Register adds m, replacing any module with the same name.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[m.Name()] = m
}

// Resolve returns the module registered under name or ErrModuleNotFound.
func (r *Registry) Resolve(name string) (Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, name)
	}
	return m, nil
}

// Names returns the registered module names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
