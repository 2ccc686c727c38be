package client_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/petal-labs/floret/client"
	"github.com/petal-labs/floret/httpapi"
	"github.com/petal-labs/floret/tool"
)

func newHTTPFixture(t *testing.T) *client.HTTPClient {
	t.Helper()
	reg := tool.NewRegistry()
	if err := tool.RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}
	err := reg.Register(tool.Definition{
		Descriptor: tool.Descriptor{Name: "fail", Description: "Always fails"},
		Handler: func(_ context.Context, _ tool.Args) (any, error) {
			return nil, errors.New("backend offline")
		},
	})
	if err != nil {
		t.Fatalf("Register(fail) error = %v", err)
	}

	server, err := httpapi.NewServer(httpapi.ServerConfig{Registry: reg})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	c, err := client.NewHTTPClient(client.HTTPClientConfig{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	return c
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	if _, err := client.NewHTTPClient(client.HTTPClientConfig{}); err == nil {
		t.Error("NewHTTPClient() error = nil, want base URL error")
	}
}

func TestHTTPClientDiscover(t *testing.T) {
	c := newHTTPFixture(t)

	descriptors, err := c.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(descriptors) != 6 {
		t.Fatalf("Discover() returned %d tools, want 6", len(descriptors))
	}
	if descriptors[0].Name != "add" {
		t.Errorf("first tool = %q, want add", descriptors[0].Name)
	}
}

func TestHTTPClientDiscoverEmptyRegistry(t *testing.T) {
	server, err := httpapi.NewServer(httpapi.ServerConfig{Registry: tool.NewRegistry()})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	c, err := client.NewHTTPClient(client.HTTPClientConfig{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}

	descriptors, err := c.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(descriptors) != 0 {
		t.Errorf("Discover() returned %d tools, want 0", len(descriptors))
	}
}

func TestHTTPClientInvoke(t *testing.T) {
	c := newHTTPFixture(t)

	result, err := c.Invoke(context.Background(), "add", tool.Args{"a": 15, "b": 27})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result != "42" {
		t.Errorf("Invoke(add) = %q, want 42", result)
	}
}

func TestHTTPClientCoercesStringArgs(t *testing.T) {
	c := newHTTPFixture(t)

	result, err := c.Invoke(context.Background(), "multiply", tool.Args{"a": "6", "b": "7"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result != "42" {
		t.Errorf("Invoke(multiply) = %q, want 42", result)
	}
}

func TestHTTPClientUnknownTool(t *testing.T) {
	c := newHTTPFixture(t)

	_, err := c.Invoke(context.Background(), "subtract", nil)
	var invErr *client.InvocationError
	if !errors.As(err, &invErr) {
		t.Fatalf("Invoke(subtract) error = %v, want *InvocationError", err)
	}
	if got, want := invErr.Message, "Unknown tool: subtract"; got != want {
		t.Errorf("InvocationError.Message = %q, want %q", got, want)
	}
}

func TestHTTPClientHandlerFault(t *testing.T) {
	c := newHTTPFixture(t)

	_, err := c.Invoke(context.Background(), "fail", nil)
	var invErr *client.InvocationError
	if !errors.As(err, &invErr) {
		t.Fatalf("Invoke(fail) error = %v, want *InvocationError", err)
	}
	if got, want := invErr.Message, "Tool error: backend offline"; got != want {
		t.Errorf("InvocationError.Message = %q, want %q", got, want)
	}
}

func TestHTTPClientServerUnreachable(t *testing.T) {
	c, err := client.NewHTTPClient(client.HTTPClientConfig{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}

	_, err = c.Invoke(context.Background(), "add", tool.Args{"a": 1, "b": 2})
	if err == nil {
		t.Fatal("Invoke() error = nil, want transport failure")
	}
	var invErr *client.InvocationError
	if errors.As(err, &invErr) {
		t.Errorf("Invoke() error = %v, want a transport error, not InvocationError", err)
	}
}

func TestHTTPClientCloseIsNoop(t *testing.T) {
	c := newHTTPFixture(t)
	if err := c.Close(context.Background()); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}
