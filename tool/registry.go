package tool

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTool indicates a registration under an already-taken name.
	ErrDuplicateTool = errors.New("tool: duplicate tool")
	// ErrUnknownTool indicates a lookup for a name that was never registered.
	ErrUnknownTool = errors.New("tool: unknown tool")
)

// Registry is the in-memory table of tool definitions. All registration
// happens during process startup, before any transport accepts requests;
// after that the registry is read-only and safe for concurrent lookups
// without locking. The set of names it resolves is exactly the set it
// advertises through List.
type Registry struct {
	byName map[string]Definition
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Definition)}
}

// Register adds a definition. It fails on an empty name, a nil handler,
// or a name that is already taken.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return errors.New("tool: registration requires a name")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool: registration %q requires a handler", def.Name)
	}
	if _, exists := r.byName[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}
	r.byName[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// List returns all descriptors in registration order. The order is stable
// across calls.
func (r *Registry) List() []Descriptor {
	descriptors := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		descriptors = append(descriptors, r.byName[name].Descriptor)
	}
	return descriptors
}

// Resolve returns the definition registered under name.
func (r *Registry) Resolve(name string) (Definition, error) {
	def, ok := r.byName[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return def, nil
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}
