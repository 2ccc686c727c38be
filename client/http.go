package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/petal-labs/floret/tool"
	"github.com/petal-labs/floret/wire"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPClientConfig controls the HTTP-backed client.
type HTTPClientConfig struct {
	// BaseURL is the tool server root, e.g. "http://localhost:8080".
	BaseURL string

	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client
}

// HTTPClient speaks the stateless HTTP binding. Requests are independent;
// abandoning one (context cancellation, timeout) is always safe.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient creates a client for the given server base URL.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("client: base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPClient{baseURL: base, http: httpClient}, nil
}

// Discover fetches GET /tools.
func (c *HTTPClient) Discover(ctx context.Context) ([]tool.Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tools", nil)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}

	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.Tools == nil {
		return nil, errors.New("client: response carried no tool list")
	}
	return resp.Tools, nil
}

// Invoke posts to /tools/call. Error envelopes come back as
// *InvocationError regardless of status code.
func (c *HTTPClient) Invoke(ctx context.Context, name string, args tool.Args) (string, error) {
	body, err := json.Marshal(wire.CallPayload{Tool: name, Args: args})
	if err != nil {
		return "", fmt.Errorf("client: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tools/call", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.roundTrip(req)
	if err != nil {
		return "", err
	}
	if resp.Result == nil {
		return "", errors.New("client: response carried no result")
	}
	return *resp.Result, nil
}

// Close is a no-op: the HTTP binding holds no session state.
func (c *HTTPClient) Close(context.Context) error {
	return nil
}

func (c *HTTPClient) roundTrip(req *http.Request) (wire.Response, error) {
	httpResp, err := c.http.Do(req)
	if err != nil {
		return wire.Response{}, fmt.Errorf("client: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer httpResp.Body.Close()

	var resp wire.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return wire.Response{}, fmt.Errorf("client: decode response (status %d): %w", httpResp.StatusCode, err)
	}
	if resp.IsError() {
		return wire.Response{}, &InvocationError{Message: resp.ErrorMessage()}
	}
	if httpResp.StatusCode != http.StatusOK {
		return wire.Response{}, fmt.Errorf("client: unexpected status %d", httpResp.StatusCode)
	}
	return resp, nil
}

var _ Client = (*HTTPClient)(nil)
