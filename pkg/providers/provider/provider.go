// Package provider defines the interface the orchestrator uses to talk to
// an LLM, and the error type its implementations report.
package provider

import (
	"context"
	"fmt"

	"github.com/soracase/mcphost/pkg/chats/chat"
	"github.com/soracase/mcphost/pkg/chats/message"
	"github.com/soracase/mcphost/pkg/toolbox"
)

// Completer sends a conversation plus the available tool descriptors to an
// LLM and returns the assistant's reply. The reply may contain tool call
// parts; their call identifiers are generated by the model API, never by
// the host.
type Completer interface {
	Complete(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error)
}

// APIError reports a transport or quota failure from the model API. It is
// fatal to the query in progress but not to the session: the next query
// starts a fresh loop.
type APIError struct {
	StatusCode int // Zero when the failure happened before an HTTP response.
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("model api: %s", e.Message)
	}
	return fmt.Sprintf("model api: status %d: %s", e.StatusCode, e.Message)
}
