// Package client is the transport-agnostic façade over tool discovery and
// invocation. Callers pick a binding once (stream subprocess or HTTP) and
// program against the same interface either way.
package client

import (
	"context"

	"github.com/petal-labs/floret/tool"
)

// Client discovers and invokes tools over whichever transport is configured.
type Client interface {
	// Discover fetches the advertised tool descriptors.
	Discover(ctx context.Context) ([]tool.Descriptor, error)

	// Invoke calls a tool by name. A protocol-level failure comes back as
	// *InvocationError; any other error means the transport itself failed
	// and the session may be unusable.
	Invoke(ctx context.Context, name string, args tool.Args) (string, error)

	// Close releases the transport (stops the subprocess in stream mode).
	Close(ctx context.Context) error
}

// InvocationError is the dispatcher's error envelope surfaced as a typed
// failure to the caller.
type InvocationError struct {
	Message string
}

func (e *InvocationError) Error() string {
	return e.Message
}
