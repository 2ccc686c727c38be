// Package wire defines the request/response envelope shared by both
// transport bindings. One JSON request maps to exactly one JSON response;
// the response carries exactly one of tools, result, or error.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/petal-labs/floret/tool"
)

// Protocol method names.
const (
	MethodListTools = "list_tools"
	MethodCallTool  = "call_tool"
)

// ErrInvalidEnvelope indicates a response that does not carry exactly one
// of tools, result, or error.
var ErrInvalidEnvelope = errors.New("wire: envelope must carry exactly one of tools, result, or error")

// Request is the transport-agnostic invocation payload.
type Request struct {
	Method string         `json:"method"`
	Tool   string         `json:"tool,omitempty"`
	Args   map[string]any `json:"args,omitempty"`
}

// CallPayload is the HTTP POST /tools/call request body. It is the
// call_tool request without the method discriminator.
type CallPayload struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ErrorKind classifies a failed response for transport-level decisions
// (HTTP status mapping, observability labels). It never appears on the wire.
type ErrorKind string

const (
	ErrKindNone           ErrorKind = ""
	ErrKindInvalidRequest ErrorKind = "invalid_request"
	ErrKindUnknownMethod  ErrorKind = "unknown_method"
	ErrKindUnknownTool    ErrorKind = "unknown_tool"
	ErrKindBadArguments   ErrorKind = "bad_arguments"
	ErrKindHandlerFault   ErrorKind = "handler_fault"
)

// Response is the envelope for every protocol reply. Exactly one of Tools,
// Result, or Error is populated; Marshal/Unmarshal reject anything else.
type Response struct {
	Tools  []tool.Descriptor
	Result *string
	Error  *string

	// Kind classifies error responses. Local only, never serialized.
	Kind ErrorKind
}

// ListReply builds the success envelope for list_tools.
func ListReply(descriptors []tool.Descriptor) Response {
	if descriptors == nil {
		descriptors = []tool.Descriptor{}
	}
	return Response{Tools: descriptors}
}

// ResultReply builds the success envelope for call_tool.
func ResultReply(result string) Response {
	return Response{Result: &result}
}

// ErrorReply builds an error envelope with the given kind and message.
func ErrorReply(kind ErrorKind, message string) Response {
	return Response{Error: &message, Kind: kind}
}

// IsError reports whether the envelope carries an error.
func (r Response) IsError() bool {
	return r.Error != nil
}

// ErrorMessage returns the error message, or "" for success envelopes.
func (r Response) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

func (r Response) populated() int {
	n := 0
	if r.Tools != nil {
		n++
	}
	if r.Result != nil {
		n++
	}
	if r.Error != nil {
		n++
	}
	return n
}

type responseJSON struct {
	Tools  []tool.Descriptor `json:"tools"`
	Result *string           `json:"result"`
	Error  *string           `json:"error"`
}

// MarshalJSON enforces envelope exclusivity: a response that does not carry
// exactly one of tools/result/error fails to serialize instead of emitting
// an ambiguous reply. Each arm serializes on its own so an empty tool list
// still appears on the wire as "tools":[].
func (r Response) MarshalJSON() ([]byte, error) {
	if r.populated() != 1 {
		return nil, ErrInvalidEnvelope
	}
	switch {
	case r.Tools != nil:
		return json.Marshal(struct {
			Tools []tool.Descriptor `json:"tools"`
		}{r.Tools})
	case r.Result != nil:
		return json.Marshal(struct {
			Result string `json:"result"`
		}{*r.Result})
	default:
		return json.Marshal(struct {
			Error string `json:"error"`
		}{*r.Error})
	}
}

// UnmarshalJSON applies the same exclusivity check on the receiving side.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw responseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed := Response{Tools: raw.Tools, Result: raw.Result, Error: raw.Error}
	if parsed.populated() != 1 {
		return ErrInvalidEnvelope
	}
	*r = parsed
	return nil
}

// ParseRequest decodes one request line. It fails on malformed JSON and on
// valid JSON that is missing the method field; the caller converts the
// failure into an "Invalid request" envelope so the session survives.
func ParseRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("malformed JSON: %w", err)
	}
	if req.Method == "" {
		return Request{}, errors.New("missing method field")
	}
	return req, nil
}
