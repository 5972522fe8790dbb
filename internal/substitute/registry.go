package substitute

import (
	"maps"
	"slices"
	"sync"
)

// Handler turns a directive argument into replacement text.
type Handler func(arg any) string

// Registry maps directive names to handlers.
type Registry struct {
	handlers map[string]Handler
	mutex    sync.RWMutex
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler under name, replacing any handler already
// registered under that name. A nil handler removes the name.
func (r *Registry) Register(name string, handler Handler) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if handler == nil {
		delete(r.handlers, name)
		return
	}
	r.handlers[name] = handler
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	handler, exists := r.handlers[name]
	return handler, exists
}

// Names returns the registered handler names in sorted order.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return slices.Sorted(maps.Keys(r.handlers))
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.handlers)
}
