package gateway

import (
	"errors"
	"fmt"
)

// errNotConnected is the cause carried by ConnError when an operation is
// attempted before Connect has succeeded.
var errNotConnected = errors.New("not connected to tool server")

// ConnError reports that the transport to the tool server is unavailable or
// has been lost. It is fatal to the query in progress: once the transport
// fails, no further tool call on this connection can be trusted.
type ConnError struct {
	Op  string
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// IsConnError reports whether err is (or wraps) a ConnError.
func IsConnError(err error) bool {
	var ce *ConnError
	return errors.As(err, &ce)
}

// ToolError reports that the tool server ran the tool but the tool itself
// failed. It is recoverable: the orchestrator feeds it back to the model as
// an is-error tool result instead of aborting the query.
type ToolError struct {
	Tool string
	Msg  string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Msg)
}

// IsToolError reports whether err is (or wraps) a ToolError.
func IsToolError(err error) bool {
	var te *ToolError
	return errors.As(err, &te)
}
