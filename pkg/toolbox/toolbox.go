// Package toolbox holds the cached tool descriptors and dispatches tool
// calls requested by the model.
package toolbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soracase/mcphost/pkg/chats/content"
)

// ToolBox is a registry of tools keyed by name. The orchestrator fills it
// once per connection from the gateway's tool listing and dispatches every
// model-requested call through it.
type ToolBox struct {
	tools map[string]Tool
	order []string
}

// New creates a ToolBox ready for use.
func New() *ToolBox {
	return &ToolBox{
		tools: make(map[string]Tool),
	}
}

// Register adds one or more tools to the ToolBox. If a tool with the same
// name already exists, it is replaced.
func (tb *ToolBox) Register(tools ...Tool) {
	for _, t := range tools {
		if _, exists := tb.tools[t.Name]; !exists {
			tb.order = append(tb.order, t.Name)
		}
		tb.tools[t.Name] = t
	}
}

// Get returns a tool by name and a boolean indicating whether it was found.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Tools returns all registered tools in registration order.
func (tb *ToolBox) Tools() []Tool {
	result := make([]Tool, 0, len(tb.tools))
	for _, name := range tb.order {
		result = append(result, tb.tools[name])
	}
	return result
}

// Names returns the names of all registered tools in registration order.
func (tb *ToolBox) Names() []string {
	names := make([]string, len(tb.order))
	copy(names, tb.order)
	return names
}

// Call executes one tool call and returns a ToolResult correlated to the
// call by its identifier. The result is always usable: an unknown tool
// name, an argument that fails schema validation, or a handler failure all
// produce a result with IsError set, so the model can adapt.
//
// When the handler itself failed, the raw error is returned alongside the
// folded result so the caller can distinguish fatal transport failures from
// application-level ones. The error is nil for unknown-tool and validation
// failures — those never reach the provider.
func (tb *ToolBox) Call(ctx context.Context, tc content.ToolCall) (content.ToolResult, error) {
	t, ok := tb.tools[tc.Name]
	if !ok {
		return content.ToolResult{
			ToolCallID: tc.ID,
			Content:    fmt.Sprintf("tool not found: %s", tc.Name),
			IsError:    true,
		}, nil
	}

	if err := validateArguments(t.InputSchema, tc.Arguments); err != nil {
		return content.ToolResult{
			ToolCallID: tc.ID,
			Content:    fmt.Sprintf("invalid arguments for tool %s: %v", tc.Name, err),
			IsError:    true,
		}, nil
	}

	result, err := t.Handler(ctx, json.RawMessage(tc.Arguments))
	if err != nil {
		return content.ToolResult{
			ToolCallID: tc.ID,
			Content:    err.Error(),
			IsError:    true,
		}, err
	}

	return content.ToolResult{
		ToolCallID: tc.ID,
		Content:    result,
	}, nil
}
