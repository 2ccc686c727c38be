// Package dispatch resolves protocol requests against the tool registry and
// converts every failure into an error envelope. It is the only place that
// builds envelopes; transports distinguish nothing beyond "envelope
// produced" versus a transport-level fault of their own.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/petal-labs/floret/tool"
	"github.com/petal-labs/floret/wire"
)

// Config controls dispatcher construction.
type Config struct {
	Registry *tool.Registry

	// Transport labels invocation observations ("stdio", "http").
	Transport string
}

// Dispatcher routes parsed requests to the registry.
type Dispatcher struct {
	reg       *tool.Registry
	transport string
}

// New creates a dispatcher over a fully-populated registry.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Registry == nil {
		return nil, errors.New("dispatch: registry is required")
	}
	return &Dispatcher{reg: cfg.Registry, transport: cfg.Transport}, nil
}

// Handle answers one request. It never panics past its boundary: handler
// panics, coercion failures, and unknown names all come back as error
// envelopes.
func (d *Dispatcher) Handle(ctx context.Context, req wire.Request) wire.Response {
	switch req.Method {
	case wire.MethodListTools:
		return wire.ListReply(d.reg.List())
	case wire.MethodCallTool:
		return d.handleCall(ctx, req)
	case "":
		return wire.ErrorReply(wire.ErrKindInvalidRequest, "Invalid request: missing method field")
	default:
		return wire.ErrorReply(wire.ErrKindUnknownMethod, "Unknown method: "+req.Method)
	}
}

func (d *Dispatcher) handleCall(ctx context.Context, req wire.Request) wire.Response {
	start := time.Now()

	def, err := d.reg.Resolve(req.Tool)
	if err != nil {
		return d.observed(req.Tool, start, wire.ErrorReply(wire.ErrKindUnknownTool, "Unknown tool: "+req.Tool))
	}

	args, err := tool.CoerceArgs(def.Params, req.Args)
	if err != nil {
		return d.observed(req.Tool, start, wire.ErrorReply(wire.ErrKindBadArguments, "Tool error: "+err.Error()))
	}

	result, err := d.invoke(ctx, def, args)
	if err != nil {
		return d.observed(req.Tool, start, wire.ErrorReply(wire.ErrKindHandlerFault, "Tool error: "+err.Error()))
	}

	text, err := formatResult(result)
	if err != nil {
		return d.observed(req.Tool, start, wire.ErrorReply(wire.ErrKindHandlerFault, "Tool error: "+err.Error()))
	}
	return d.observed(req.Tool, start, wire.ResultReply(text))
}

// invoke runs the handler with panic containment.
func (d *Dispatcher) invoke(ctx context.Context, def tool.Definition, args tool.Args) (result any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = nil
			err = fmt.Errorf("handler panic: %v", recovered)
		}
	}()
	return def.Handler(ctx, args)
}

func (d *Dispatcher) observed(toolName string, start time.Time, resp wire.Response) wire.Response {
	tool.EmitInvokeObservation(tool.InvokeObservation{
		Tool:      toolName,
		Transport: d.transport,
		Duration:  time.Since(start),
		Success:   !resp.IsError(),
		ErrorKind: string(resp.Kind),
	})
	return resp
}

// formatResult stringifies a successful handler result: strings pass
// through, scalars format via strconv, anything else round-trips through
// JSON. Whole floats drop their fraction so add(15, 27) yields "42".
func formatResult(result any) (string, error) {
	switch v := result.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("result is not serializable: %w", err)
		}
		return string(encoded), nil
	}
}
