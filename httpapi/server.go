// Package httpapi binds the dispatcher to the stateless HTTP transport:
// GET /tools for discovery, POST /tools/call for invocation. Every request
// is independent; the only shared state is the read-only registry, so
// handlers run concurrently without locking.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/petal-labs/floret/dispatch"
	"github.com/petal-labs/floret/tool"
	"github.com/petal-labs/floret/wire"
)

const defaultMaxBody = 1 << 20 // 1 MB

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Registry *tool.Registry
	Logger   *slog.Logger

	// MaxBody caps POST bodies (default 1 MB).
	MaxBody int64

	// RequestTimeout bounds one request end to end (default 60s).
	RequestTimeout time.Duration
}

// Server serves the HTTP binding of the tool protocol.
type Server struct {
	dispatcher *dispatch.Dispatcher
	router     *chi.Mux
	logger     *slog.Logger
	maxBody    int64
}

// NewServer constructs a server with middleware and routes configured. The
// registry must be fully populated before the returned handler serves.
func NewServer(cfg ServerConfig) (*Server, error) {
	dispatcher, err := dispatch.New(dispatch.Config{Registry: cfg.Registry, Transport: "http"})
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := cfg.MaxBody
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	s := &Server{
		dispatcher: dispatcher,
		router:     chi.NewRouter(),
		logger:     logger,
		maxBody:    maxBody,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(timeout))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/tools", s.handleListTools)
	s.router.Post("/tools/call", s.handleCall)

	return s, nil
}

// Router exposes the root HTTP handler.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	resp := s.dispatcher.Handle(r.Context(), wire.Request{Method: wire.MethodListTools})
	s.writeResponse(w, resp)
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var payload wire.CallPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeResponse(w, wire.ErrorReply(wire.ErrKindInvalidRequest, "Invalid request: body exceeds limit"))
			return
		}
		s.writeResponse(w, wire.ErrorReply(wire.ErrKindInvalidRequest, "Invalid request: "+err.Error()))
		return
	}

	resp := s.dispatcher.Handle(r.Context(), wire.Request{
		Method: wire.MethodCallTool,
		Tool:   payload.Tool,
		Args:   payload.Args,
	})
	s.writeResponse(w, resp)
}

// writeResponse maps an envelope to its HTTP status: success is 200,
// handler faults are 500, everything else the client got wrong is 400.
func (s *Server) writeResponse(w http.ResponseWriter, resp wire.Response) {
	status := http.StatusOK
	if resp.IsError() {
		switch resp.Kind {
		case wire.ErrKindHandlerFault:
			status = http.StatusInternalServerError
		default:
			status = http.StatusBadRequest
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("writing response", "err", err)
	}
}
