package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Func implements a named output. It receives the arguments of the input
// that fired it.
type Func func(ctx context.Context, args ...any) (any, error)

// Registry binds output names used in definition files to implementations.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]Func),
	}
}

// Register adds an output implementation.
// If one with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Lookup returns the implementation registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names lists the registered outputs, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute looks up an output by name and runs it.
func (r *Registry) Execute(ctx context.Context, name string, args ...any) (any, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("output not registered: %s", name)
	}
	return fn(ctx, args...)
}
