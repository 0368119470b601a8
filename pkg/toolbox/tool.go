package toolbox

import (
	"context"
	"encoding/json"
)

// Handler executes a tool with the given JSON input and returns a text result.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is a tool descriptor paired with its handler: a unique name, a
// human-readable description, a JSON Schema for the accepted input, and the
// function that performs the invocation. Descriptors are immutable once
// fetched; the host caches them for the lifetime of a connection.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}
