// Package anthropic implements provider.Completer for the Anthropic
// Messages API using the official Go SDK.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/soracase/mcphost/pkg/chats/chat"
	"github.com/soracase/mcphost/pkg/chats/content"
	"github.com/soracase/mcphost/pkg/chats/message"
	"github.com/soracase/mcphost/pkg/chats/role"
	"github.com/soracase/mcphost/pkg/providers/provider"
	"github.com/soracase/mcphost/pkg/toolbox"
)

// Defaults applied by New when the corresponding field is unset.
const (
	DefaultModel     = "claude-sonnet-4-5"
	DefaultMaxTokens = 1000
)

var _ provider.Completer = (*Adapter)(nil)

// Adapter sends conversations to the Anthropic Messages API. Configure the
// exported fields before the first Complete call; the zero values fall back
// to the package defaults.
type Adapter struct {
	client    anthropic.Client
	Model     string
	MaxTokens int64
	System    string
}

// New creates an Adapter for the given API key and model. An empty model
// selects DefaultModel; an empty apiKey defers to the SDK's environment
// lookup.
func New(apiKey, model string) *Adapter {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if model == "" {
		model = DefaultModel
	}

	return &Adapter{
		client:    anthropic.NewClient(opts...),
		Model:     model,
		MaxTokens: DefaultMaxTokens,
	}
}

// Complete sends the conversation and tool descriptors to the API and
// returns the assistant's reply. Any failure is reported as a
// *provider.APIError.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: a.MaxTokens,
		Messages:  buildMessages(c),
	}
	if len(tools) > 0 {
		params.Tools = buildTools(tools)
	}
	if a.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: a.System}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return message.Message{}, apiError(err)
	}

	return parseResponse(resp), nil
}

// buildMessages converts the conversation into Anthropic message params.
// Tool-result turns become user messages carrying tool_result blocks, per
// the Messages API convention. System messages are omitted here; the system
// prompt travels in its own request field.
func buildMessages(c *chat.Chat) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, c.Len())

	for _, m := range c.Messages() {
		switch m.Role {
		case role.User:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.TextContent())))

		case role.Assistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Parts))
			for _, p := range m.Parts {
				switch part := p.(type) {
				case content.Text:
					blocks = append(blocks, anthropic.NewTextBlock(part.Text))
				case content.ToolCall:
					input := map[string]any{}
					if part.Arguments != "" {
						_ = json.Unmarshal([]byte(part.Arguments), &input)
					}
					blocks = append(blocks, anthropic.NewToolUseBlock(part.ID, input, part.Name))
				}
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}

		case role.Tool:
			results := m.ToolResults()
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(results))
			for _, tr := range results {
				blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewUserMessage(blocks...))
			}
		}
	}

	return out
}

// buildTools converts tool descriptors into Anthropic tool declarations.
func buildTools(tools []toolbox.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))

	for _, t := range tools {
		var schema map[string]any
		if len(t.InputSchema) > 0 {
			_ = json.Unmarshal(t.InputSchema, &schema)
		}

		props, _ := schema["properties"].(map[string]any)
		sp := anthropic.ToolInputSchemaParam{Properties: props}
		if req, ok := schema["required"].([]any); ok {
			required := make([]string, len(req))
			for i, r := range req {
				required[i], _ = r.(string)
			}
			sp.Required = required
		}

		tu := anthropic.ToolUnionParamOfTool(sp, t.Name)
		if t.Description != "" {
			tu.OfTool.Description = param.NewOpt(t.Description)
		}

		out = append(out, tu)
	}

	return out
}

// parseResponse converts an API response into an assistant message. Call
// identifiers on tool_use blocks are taken verbatim from the response.
func parseResponse(resp *anthropic.Message) message.Message {
	parts := make([]content.Part, 0, len(resp.Content))

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			parts = append(parts, content.Text{Text: block.Text})
		case "tool_use":
			tu := block.AsToolUse()
			parts = append(parts, content.ToolCall{
				ID:        tu.ID,
				Name:      tu.Name,
				Arguments: string(tu.Input),
			})
		}
	}

	return message.New(role.Assistant, parts...)
}

// apiError maps an SDK error to the host's APIError type, preserving the
// HTTP status code when one is available.
func apiError(err error) *provider.APIError {
	var aerr *anthropic.Error
	if errors.As(err, &aerr) {
		return &provider.APIError{StatusCode: aerr.StatusCode, Message: aerr.Error()}
	}

	return &provider.APIError{Message: err.Error()}
}
