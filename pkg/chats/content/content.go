// Package content defines the content parts that make up a message.
package content

// Part is a piece of content within a message.
type Part interface {
	PartKind() string
}

// Text is a plain text content part.
type Text struct {
	Text string
}

func (t Text) PartKind() string { return "text" }

// ToolCall represents the model's request to invoke a tool. The ID is the
// call identifier generated by the model API; the host never mints one.
// Arguments holds the raw JSON string to avoid unnecessary deserialization.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

func (tc ToolCall) PartKind() string { return "tool_call" }

// ToolResult holds the outcome of one tool invocation, correlated to its
// request by ToolCallID. IsError marks application-level tool failures that
// are reported back to the model rather than aborting the query.
type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

func (tr ToolResult) PartKind() string { return "tool_result" }
