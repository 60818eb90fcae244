package editor

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownTool is returned when switching to a tool key that is not
// registered.
var ErrUnknownTool = errors.New("unknown tool")

// Factory creates a fresh tool instance.
type Factory func() Tool

type entry struct {
	title   string
	factory Factory
}

// Registry maps tool keys ("draw_tool", plugin directory names) to factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds or replaces a tool.
func (r *Registry) Register(key, title string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; !ok {
		r.order = append(r.order, key)
	}
	r.entries[key] = entry{title: title, factory: f}
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// New creates a tool instance for key.
func (r *Registry) New(key string) (Tool, error) {
	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, key)
	}
	return e.factory(), nil
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Title returns the display name of key, or key itself.
func (r *Registry) Title(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[key]; ok && e.title != "" {
		return e.title
	}
	return key
}
