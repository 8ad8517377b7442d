// Package wire is the JSON request/response codec for the debugger
// protocol (spec.md §6), treated as an "external collaborator" by the
// core but implemented here as a thin shim so the module runs
// end-to-end. Framing is newline-delimited JSON over a persistent
// socket, generalized from tracer/protocol/server.go's binary xtcp
// framing to plain JSON since spec.md §6 mandates a JSON wire format.
package wire

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/hgdb-go/hgdb/internal/hwmodel"
)

// RequestType selects which concrete fields of Request are populated,
// matching spec.md §6's request kinds exactly.
type RequestType string

const (
	RequestConnection   RequestType = "connection"
	RequestBreakpoint   RequestType = "breakpoint"
	RequestBreakpointID RequestType = "breakpoint_id"
	RequestBPLocation   RequestType = "bp_location"
	RequestCommand      RequestType = "command"
	RequestDebuggerInfo RequestType = "debugger_info"
	RequestError        RequestType = "error"
)

// BreakpointAction selects add or remove for breakpoint/breakpoint_id
// requests.
type BreakpointAction string

const (
	ActionAdd    BreakpointAction = "add"
	ActionRemove BreakpointAction = "remove"
)

// CommandType selects the simulator-pacing command carried by a
// command request.
type CommandType string

const (
	CommandContinue CommandType = "continue_"
	CommandStop     CommandType = "stop"
	CommandStepOver CommandType = "step_over"
)

// DebuggerInfoCommand selects the kind of introspection a
// debugger_info request asks for. Only "breakpoints" is defined by
// spec.md §6; it is kept as a distinct type so a future addition
// doesn't need to touch Request's JSON shape.
type DebuggerInfoCommand string

const DebuggerInfoBreakpoints DebuggerInfoCommand = "breakpoints"

// Request is the envelope every incoming message decodes into. Only
// the fields relevant to Type are populated; a zero LineNum/ColumnNum
// means "unspecified", matching symtab.Client.GetBreakpoints' own
// "0 means any" convention so dispatch code can pass these fields
// straight through without translation.
type Request struct {
	Type  RequestType `json:"type"`
	Token string      `json:"token,omitempty"`

	// connection
	DBFilename string `json:"db_filename,omitempty"`

	// breakpoint / breakpoint_id / bp_location
	Action    BreakpointAction     `json:"action,omitempty"`
	ID        hwmodel.BreakpointID `json:"id,omitempty"`
	Filename  string               `json:"filename,omitempty"`
	LineNum   uint32               `json:"line_num,omitempty"`
	ColumnNum uint32               `json:"column_num,omitempty"`
	Condition string               `json:"condition,omitempty"`

	// command
	Command CommandType `json:"command,omitempty"`

	// debugger_info
	InfoCommand DebuggerInfoCommand `json:"info_command,omitempty"`

	// error (client-visible reason for a request the caller already
	// deemed invalid before it reached the dispatcher)
	Reason string `json:"reason,omitempty"`
}

// ParseRequest decodes one line of the wire protocol. A JSON syntax
// error or an unknown Type is a protocol error per spec.md §7, wrapped
// so the caller can render it into a generic error response.
func ParseRequest(raw []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errors.Wrap(err, "wire: malformed request")
	}
	switch req.Type {
	case RequestConnection, RequestBreakpoint, RequestBreakpointID,
		RequestBPLocation, RequestCommand, RequestDebuggerInfo, RequestError:
	default:
		return nil, errors.Errorf("wire: unknown request type %q", req.Type)
	}
	return &req, nil
}

// ResponseType selects which response struct a message is.
type ResponseType string

const (
	ResponseGeneric        ResponseType = "generic"
	ResponseBPLocation     ResponseType = "bp_location_response"
	ResponseBreakpointHit  ResponseType = "breakpoint_hit"
	ResponseDebuggerInfo   ResponseType = "debugger_info_response"
)

// Status is the outcome carried by GenericResponse.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// GenericResponse acknowledges a request, successfully or not.
type GenericResponse struct {
	Type   ResponseType `json:"type"`
	Token  string       `json:"token,omitempty"`
	Status Status       `json:"status"`
	Reason string       `json:"reason,omitempty"`
}

// NewSuccess builds a success GenericResponse echoing req's token.
func NewSuccess(req *Request) GenericResponse {
	return GenericResponse{Type: ResponseGeneric, Token: req.Token, Status: StatusSuccess}
}

// NewError builds an error GenericResponse echoing req's token. req
// may be nil when the request itself failed to parse.
func NewError(req *Request, reason string) GenericResponse {
	resp := GenericResponse{Type: ResponseGeneric, Status: StatusError, Reason: reason}
	if req != nil {
		resp.Token = req.Token
	}
	return resp
}

// BreakpointLocation is one entry of a bp_location_response or
// debugger_info_response's breakpoint list.
type BreakpointLocation struct {
	ID        hwmodel.BreakpointID `json:"id,omitempty"`
	Filename  string               `json:"filename"`
	LineNum   uint32               `json:"line_num"`
	ColumnNum uint32               `json:"column_num"`
}

// BPLocationResponse answers a bp_location request.
type BPLocationResponse struct {
	Type        ResponseType         `json:"type"`
	Token       string               `json:"token,omitempty"`
	Breakpoints []BreakpointLocation `json:"breakpoints"`
}

// BreakpointHitResponse is sent when the evaluator's guard fires,
// matching spec.md §6's breakpoint_hit fields exactly.
type BreakpointHitResponse struct {
	Type         ResponseType         `json:"type"`
	Time         uint64               `json:"time"`
	InstanceID   hwmodel.InstanceID   `json:"instance_id"`
	InstanceName string               `json:"instance_name"`
	ID           hwmodel.BreakpointID `json:"id"`
	Filename     string               `json:"filename"`
	Line         uint32               `json:"line"`
	Column       uint32               `json:"column"`
	Locals       map[string]string    `json:"locals"`
	Generators   map[string]string    `json:"generators"`
}

// DebuggerInfoResponse answers a debugger_info {breakpoints} request
// with the active breakpoint list's source locations.
type DebuggerInfoResponse struct {
	Type        ResponseType         `json:"type"`
	Token       string               `json:"token,omitempty"`
	Breakpoints []BreakpointLocation `json:"breakpoints"`
}

// Marshal encodes a response value, appending the newline terminator
// the socket server's line framing expects.
func Marshal(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "wire: marshal response")
	}
	return append(b, '\n'), nil
}
