package stdio

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyStarted is returned by Start when the client already owns a process.
	ErrAlreadyStarted = errors.New("mcp server already started")

	// ErrSessionClosed is returned by Start after Stop; a client is single use.
	ErrSessionClosed = errors.New("mcp session closed; create a new client")
)

// LaunchError reports that the child process could not be created.
type LaunchError struct {
	Command []string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch MCP server %q: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// NotStartedError is returned when a request is attempted without a running process.
type NotStartedError struct {
	Method string
}

func (e *NotStartedError) Error() string {
	return fmt.Sprintf("MCP server not started (method %s)", e.Method)
}

// NoResponseError is returned when the server's output ends before a response
// line arrives. Stderr holds what the server wrote to its error stream.
type NoResponseError struct {
	Method string
	Stderr string
	Err    error
}

func (e *NoResponseError) Error() string {
	msg := fmt.Sprintf("no response from server for %s", e.Method)
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg + ". stderr: " + e.Stderr
}

func (e *NoResponseError) Unwrap() error { return e.Err }

// MalformedResponseError is returned when a response line is not a JSON object.
type MalformedResponseError struct {
	Method string
	Line   string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response for %s: %v: %q", e.Method, e.Err, e.Line)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ResponseMismatchError is returned when the response read does not carry the
// id of the request in flight.
type ResponseMismatchError struct {
	Method   string
	Expected int64
	Got      any
	Response Response
}

func (e *ResponseMismatchError) Error() string {
	return fmt.Sprintf("response id mismatch for %s: expected %d, got %v", e.Method, e.Expected, e.Got)
}
