package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/petal-labs/floret/httpapi"
	"github.com/petal-labs/floret/tool"
	"github.com/petal-labs/floret/wire"
)

func newTestHandler(t *testing.T) http.Handler {
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
	return server.Router()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) wire.Response {
	t.Helper()
	var resp wire.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("GET /health body = %q, want status ok", rec.Body.String())
	}
}

func TestListToolsEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tools", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /tools status = %d, want 200", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if len(resp.Tools) != 6 {
		t.Fatalf("GET /tools returned %d tools, want 6", len(resp.Tools))
	}
	if resp.Tools[0].Name != "add" {
		t.Errorf("first tool = %q, want add", resp.Tools[0].Name)
	}
}

func TestCallEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	body := strings.NewReader(`{"tool":"add","args":{"a":15,"b":27}}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/call", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /tools/call status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if resp.Result == nil || *resp.Result != "42" {
		t.Errorf("result = %v, want 42", resp.Result)
	}
}

func TestCallEndpointUnknownTool(t *testing.T) {
	handler := newTestHandler(t)

	body := strings.NewReader(`{"tool":"subtract"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/call", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if got, want := resp.ErrorMessage(), "Unknown tool: subtract"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestCallEndpointBadArguments(t *testing.T) {
	handler := newTestHandler(t)

	body := strings.NewReader(`{"tool":"add","args":{"a":"not a number","b":2}}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/call", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if !strings.HasPrefix(resp.ErrorMessage(), "Tool error:") {
		t.Errorf("error = %q, want Tool error prefix", resp.ErrorMessage())
	}
}

func TestCallEndpointHandlerFault(t *testing.T) {
	handler := newTestHandler(t)

	body := strings.NewReader(`{"tool":"fail"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/call", body))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if got, want := resp.ErrorMessage(), "Tool error: backend offline"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestCallEndpointMalformedBody(t *testing.T) {
	handler := newTestHandler(t)

	body := strings.NewReader(`{not json`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/call", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if !strings.HasPrefix(resp.ErrorMessage(), "Invalid request:") {
		t.Errorf("error = %q, want Invalid request prefix", resp.ErrorMessage())
	}
}

func TestCallEndpointBodyLimit(t *testing.T) {
	reg := tool.NewRegistry()
	if err := tool.RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}
	server, err := httpapi.NewServer(httpapi.ServerConfig{Registry: reg, MaxBody: 64})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	body := strings.NewReader(`{"tool":"uppercase","args":{"text":"` + strings.Repeat("a", 256) + `"}}`)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/call", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if got, want := resp.ErrorMessage(), "Invalid request: body exceeds limit"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestConcurrentCalls(t *testing.T) {
	handler := newTestHandler(t)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			body := strings.NewReader(`{"tool":"multiply","args":{"a":6,"b":7}}`)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/call", body))

			if rec.Code != http.StatusOK {
				done <- errors.New("unexpected status")
				return
			}
			var resp wire.Response
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				done <- err
				return
			}
			if resp.Result == nil || *resp.Result != "42" {
				done <- errors.New("unexpected result")
				return
			}
			done <- nil
		}()
	}

	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent call failed: %v", err)
		}
	}
}
