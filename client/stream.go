package client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/petal-labs/floret/stdio"
	"github.com/petal-labs/floret/supervisor"
	"github.com/petal-labs/floret/tool"
)

// StreamClientConfig controls the subprocess-backed client.
type StreamClientConfig struct {
	Command     supervisor.Command
	GracePeriod time.Duration
	Logger      *slog.Logger
}

// StreamClient runs the tool server as a supervised subprocess and speaks
// the stream protocol over its standard streams. Calls are strictly
// serialized; the stream protocol has no cancellation, so a hung handler
// can only be escaped by Close and a fresh client.
type StreamClient struct {
	proc *supervisor.ServerProcess
	rpc  *stdio.Client
}

// NewStreamClient spawns the tool server and wires up the stream session.
// ctx bounds the subprocess's whole lifetime, not just the spawn.
func NewStreamClient(ctx context.Context, cfg StreamClientConfig) (*StreamClient, error) {
	proc, err := supervisor.Start(ctx, cfg.Command, supervisor.Config{
		GracePeriod: cfg.GracePeriod,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &StreamClient{
		proc: proc,
		rpc:  stdio.NewClient(proc.Stdin(), proc.Stdout()),
	}, nil
}

// Discover fetches the server's tool list.
func (c *StreamClient) Discover(_ context.Context) ([]tool.Descriptor, error) {
	resp, err := c.rpc.ListTools()
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &InvocationError{Message: resp.ErrorMessage()}
	}
	return resp.Tools, nil
}

// Invoke calls a tool by name. The context is accepted for interface
// symmetry only: the stream protocol cannot abort an in-flight request.
func (c *StreamClient) Invoke(_ context.Context, name string, args tool.Args) (string, error) {
	resp, err := c.rpc.CallTool(name, args)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", &InvocationError{Message: resp.ErrorMessage()}
	}
	if resp.Result == nil {
		return "", errors.New("client: response carried no result")
	}
	return *resp.Result, nil
}

// Alive reports whether the supervised server process is still running.
func (c *StreamClient) Alive() bool {
	return c.proc.Alive()
}

// Close tears down the subprocess. Safe to call more than once.
func (c *StreamClient) Close(ctx context.Context) error {
	return c.proc.Stop(ctx)
}

var _ Client = (*StreamClient)(nil)
