package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/junioryono/bindr"
)

// Error codes carried in error envelopes.
const (
	CodeNotRegistered  = "not_registered"
	CodeMethodNotFound = "method_not_found"
	CodeBadRequest     = "bad_request"
	CodeCallFailed     = "call_failed"
)

// callRequest is the body of POST /v1/calls.
type callRequest struct {
	ID     string            `json:"id"`
	Type   string            `json:"type"`
	Method string            `json:"method"`
	Args   []json.RawMessage `json:"args"`
}

// outgoingCall is callRequest as sent by the client, with arguments still
// as Go values.
type outgoingCall struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// callResponse is the body of every /v1/calls response.
type callResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *errorBody      `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// rawArg is a call argument still encoded as JSON. bindr.Dispatch decodes
// it into the parameter type of the target method.
type rawArg json.RawMessage

func (a rawArg) Decode(v any) error {
	return json.Unmarshal(a, v)
}

// Result is a call result still encoded as JSON.
//
//	n, err := bindr.Decode[int](client.Handle(ctx, call))
type Result json.RawMessage

var _ bindr.Decoder = Result(nil)

// Decode unmarshals the result into v.
func (r Result) Decode(v any) error {
	if len(r) == 0 {
		return nil
	}
	return json.Unmarshal(r, v)
}

// String returns the raw JSON.
func (r Result) String() string {
	return string(r)
}

// CallError is a failure reported by the remote side.
type CallError struct {
	Code    string
	Message string
	Status  int
}

func (e *CallError) Error() string {
	return fmt.Sprintf("remote %s (%d): %s", e.Code, e.Status, e.Message)
}

// Is maps error codes back to the bindr sentinels, so errors.Is works the
// same on both sides of the wire.
func (e *CallError) Is(target error) bool {
	switch e.Code {
	case CodeNotRegistered:
		return target == bindr.ErrNotRegistered
	case CodeMethodNotFound:
		return target == bindr.ErrMethodNotFound
	case CodeBadRequest:
		return target == bindr.ErrBadArguments
	}
	return false
}

// classify maps a dispatch error to an error code and HTTP status.
func classify(err error) (string, int) {
	var de *bindr.DispatchError
	isDispatch := errors.As(err, &de)

	switch {
	case isDispatch && errors.Is(err, bindr.ErrNotRegistered):
		return CodeNotRegistered, http.StatusNotFound
	case isDispatch && errors.Is(err, bindr.ErrMethodNotFound):
		return CodeMethodNotFound, http.StatusNotFound
	case isDispatch && errors.Is(err, bindr.ErrBadArguments):
		return CodeBadRequest, http.StatusBadRequest
	default:
		return CodeCallFailed, http.StatusInternalServerError
	}
}
