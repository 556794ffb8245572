package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vk/gridflow/internal/component"
)

// Module is the interface that all built-in component packages implement to
// be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the handlers and component specs for a single application
// instance. It is safe for concurrent reads once populated.
type Registry struct {
	mu         sync.RWMutex
	handlers   map[string]component.Body
	components map[string]*component.Spec
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		handlers:   make(map[string]component.Body),
		components: make(map[string]*component.Spec),
	}
}

// Load creates a Registry populated by every module.
func Load(modules ...Module) *Registry {
	r := New()
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterHandler registers a Go body under a handler name.
func (r *Registry) RegisterHandler(name string, body component.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if body == nil {
		panic(fmt.Sprintf("handler '%s' registered with a nil body", name))
	}
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("handler with name '%s' already registered", name))
	}
	slog.Debug("Registering handler.", "name", name)
	r.handlers[name] = body
}

// RegisterComponent registers a spec and, when it carries a body, its handler.
func (r *Registry) RegisterComponent(spec *component.Spec) {
	r.mu.Lock()
	if _, exists := r.components[spec.Name]; exists {
		r.mu.Unlock()
		panic(fmt.Sprintf("component with name '%s' already registered", spec.Name))
	}
	slog.Debug("Registering component.", "name", spec.Name, "handler", spec.Handler)
	r.components[spec.Name] = spec
	r.mu.Unlock()

	if spec.Body != nil {
		r.RegisterHandler(spec.Handler, spec.Body)
	}
}

// Handler looks up a body by handler name.
func (r *Registry) Handler(name string) (component.Body, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.handlers[name]
	return b, ok
}

// Component looks up a spec by component name.
func (r *Registry) Component(name string) (*component.Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.components[name]
	return s, ok
}

// Components returns every registered spec, sorted by name.
func (r *Registry) Components() []*component.Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*component.Spec, 0, len(r.components))
	for _, s := range r.components {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Handlers returns every registered handler name, sorted.
func (r *Registry) Handlers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
