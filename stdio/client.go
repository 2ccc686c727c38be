package stdio

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/petal-labs/floret/wire"
)

// ErrSessionClosed indicates the server closed its output stream before
// answering; no envelope exists for the outstanding request.
var ErrSessionClosed = errors.New("stdio: server closed the stream")

// Client speaks the stream protocol over a server's stdin/stdout pipe pair.
// A mutex spans each write+read so there is never more than one outstanding
// request; the protocol has no cancellation, so calls block until the
// server answers or the stream dies.
type Client struct {
	mu      sync.Mutex
	encoder *json.Encoder
	scanner *bufio.Scanner
}

// NewClient wraps the write end of the server's stdin and the read end of
// its stdout. The client assumes exclusive ownership of both.
func NewClient(w io.Writer, r io.Reader) *Client {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialLineBuffer), defaultMaxLine)
	return &Client{
		encoder: json.NewEncoder(w),
		scanner: scanner,
	}
}

// ListTools performs a list_tools round trip.
func (c *Client) ListTools() (wire.Response, error) {
	return c.roundTrip(wire.Request{Method: wire.MethodListTools})
}

// CallTool performs a call_tool round trip. The returned envelope may still
// be an error envelope; only transport faults come back as an error.
func (c *Client) CallTool(name string, args map[string]any) (wire.Response, error) {
	return c.roundTrip(wire.Request{Method: wire.MethodCallTool, Tool: name, Args: args})
}

func (c *Client) roundTrip(req wire.Request) (wire.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.encoder.Encode(req); err != nil {
		return wire.Response{}, fmt.Errorf("stdio: send request: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return wire.Response{}, fmt.Errorf("stdio: read response: %w", err)
		}
		return wire.Response{}, ErrSessionClosed
	}

	var resp wire.Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return wire.Response{}, fmt.Errorf("stdio: decode response: %w", err)
	}
	return resp, nil
}
