// Package stdio binds the dispatcher to a newline-delimited JSON stream:
// one request per input line, one response per output line, in strict
// request order. There are no request ids; the protocol allows exactly one
// outstanding request at a time.
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/petal-labs/floret/dispatch"
	"github.com/petal-labs/floret/wire"
)

const (
	initialLineBuffer = 64 * 1024
	defaultMaxLine    = 1 << 20 // 1 MB
)

// ServerConfig controls a stream server session.
type ServerConfig struct {
	Dispatcher *dispatch.Dispatcher
	In         io.Reader
	Out        io.Writer

	// MaxLineBytes caps one request line. A longer line cannot be
	// re-synchronized and ends the session as a transport fault.
	MaxLineBytes int

	// Logger receives session lifecycle events. It must not write to Out;
	// stdout carries only protocol frames.
	Logger *slog.Logger
}

// Server answers requests on one stream session until EOF.
type Server struct {
	dispatcher *dispatch.Dispatcher
	in         io.Reader
	out        io.Writer
	maxLine    int
	logger     *slog.Logger
}

// NewServer creates a stream server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Dispatcher == nil {
		return nil, errors.New("stdio: dispatcher is required")
	}
	if cfg.In == nil || cfg.Out == nil {
		return nil, errors.New("stdio: input and output streams are required")
	}
	maxLine := cfg.MaxLineBytes
	if maxLine <= 0 {
		maxLine = defaultMaxLine
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		dispatcher: cfg.Dispatcher,
		in:         cfg.In,
		out:        cfg.Out,
		maxLine:    maxLine,
		logger:     logger,
	}, nil
}

// Run reads requests until the input stream closes. A malformed line gets
// an "Invalid request" envelope and the session continues; a write failure
// or over-long line is a transport fault and ends the session.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	// The scanner treats max(cap(buf), limit) as the token cap, so the
	// initial buffer must not exceed the configured limit.
	initial := initialLineBuffer
	if initial > s.maxLine {
		initial = s.maxLine
	}
	scanner.Buffer(make([]byte, initial), s.maxLine)
	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp := s.answer(ctx, scanner.Bytes())
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("stdio: write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdio: read request: %w", err)
	}
	s.logger.Debug("stream session ended", "reason", "eof")
	return nil
}

func (s *Server) answer(ctx context.Context, line []byte) wire.Response {
	req, err := wire.ParseRequest(line)
	if err != nil {
		return wire.ErrorReply(wire.ErrKindInvalidRequest, "Invalid request: "+err.Error())
	}
	return s.dispatcher.Handle(ctx, req)
}
