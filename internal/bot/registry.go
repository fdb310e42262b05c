package bot

import (
	"fmt"
	"slices"
	"sync"
)

// Registry holds registered modules.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
}

// NewRegistry creates a new module registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make([]Module, 0),
	}
}

// Register adds a module to the registry.
// It panics if a module with the same name is already registered.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.modules {
		if existing.Name() == m.Name() {
			panic(fmt.Sprintf("bot: module %q registered twice", m.Name()))
		}
	}
	r.modules = append(r.modules, m)
}

// Lookup returns the registered module with the given name.
func (r *Registry) Lookup(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.modules {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// Modules returns a snapshot of all registered modules.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.modules)
}

// globalRegistry backs module self-registration from init functions.
var globalRegistry = NewRegistry()

// Register adds a module to the global registry.
// This is typically called from module init() functions.
func Register(m Module) {
	globalRegistry.Register(m)
}

// Modules returns all modules from the global registry.
func Modules() []Module {
	return globalRegistry.Modules()
}

// ResetGlobalRegistry resets the global registry.
// This is intended for testing purposes only.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}
