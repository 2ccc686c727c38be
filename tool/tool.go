// Package tool defines tool descriptors, handlers, the in-memory registry,
// and the argument coercion rules of the invocation protocol.
package tool

import "context"

// ParamType is the closed parameter type system of the protocol.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
)

// Args is the keyword-style argument mapping passed to a handler.
type Args map[string]any

// Handler is one callable unit of work. Handlers are assumed to complete
// within bounded time and return a scalar or string result.
type Handler func(ctx context.Context, args Args) (any, error)

// Descriptor is the immutable, discoverable identity of a registered tool.
type Descriptor struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Params      map[string]ParamType `json:"params,omitempty"`
}

// Definition pairs a descriptor with its handler. The Handler field never
// crosses the wire.
type Definition struct {
	Descriptor
	Handler Handler `json:"-"`
}
