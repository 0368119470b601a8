package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/soracase/mcphost/pkg/chats/chat"
	"github.com/soracase/mcphost/pkg/chats/content"
	"github.com/soracase/mcphost/pkg/chats/message"
	"github.com/soracase/mcphost/pkg/chats/role"
	"github.com/soracase/mcphost/pkg/gateway"
	"github.com/soracase/mcphost/pkg/providers/provider"
	"github.com/soracase/mcphost/pkg/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceCompleter returns a sequence of preconfigured replies.
type sequenceCompleter struct {
	replies []message.Message
	index   int
}

func (p *sequenceCompleter) Complete(_ context.Context, _ *chat.Chat, _ []toolbox.Tool) (message.Message, error) {
	if p.index >= len(p.replies) {
		return message.Message{}, errors.New("no more replies")
	}
	reply := p.replies[p.index]
	p.index++
	return reply, nil
}

// loopingCompleter always requests another tool call.
type loopingCompleter struct {
	calls int
}

func (p *loopingCompleter) Complete(_ context.Context, _ *chat.Chat, _ []toolbox.Tool) (message.Message, error) {
	p.calls++
	return message.New(role.Assistant,
		content.ToolCall{ID: "c1", Name: "echo", Arguments: `{}`},
	), nil
}

// errorCompleter always returns an error.
type errorCompleter struct {
	err error
}

func (p *errorCompleter) Complete(_ context.Context, _ *chat.Chat, _ []toolbox.Tool) (message.Message, error) {
	return message.Message{}, p.err
}

func newEchoToolBox() *toolbox.ToolBox {
	tb := toolbox.New()
	tb.Register(toolbox.Tool{
		Name:        "echo",
		Description: "Echoes input",
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Handler: func(_ context.Context, input json.RawMessage) (string, error) {
			return string(input), nil
		},
	})
	return tb
}

func TestRunNoToolFastPath(t *testing.T) {
	p := &sequenceCompleter{
		replies: []message.Message{
			message.NewText(role.Assistant, "Done."),
		},
	}
	a := New(p, newEchoToolBox(), Options{})

	result, err := a.Run(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "Done.", result.TextContent())
	assert.Equal(t, 1, p.index)
	// User turn plus final assistant turn, nothing else.
	assert.Equal(t, 2, a.Chat().Len())
}

func TestRunWeatherScenario(t *testing.T) {
	p := &sequenceCompleter{
		replies: []message.Message{
			message.New(role.Assistant,
				content.ToolCall{ID: "toolu_01", Name: "get_weather", Arguments: `{"city":"Tokyo"}`},
			),
			message.NewText(role.Assistant, "It's 18°C and clear in Tokyo."),
		},
	}

	tb := toolbox.New()
	tb.Register(toolbox.Tool{
		Name:        "get_weather",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}}}`),
		Handler: func(_ context.Context, _ json.RawMessage) (string, error) {
			return "18°C, clear", nil
		},
	})

	a := New(p, tb, Options{})
	result, err := a.Run(context.Background(), "What's the weather in Tokyo?")

	require.NoError(t, err)
	assert.Equal(t, "It's 18°C and clear in Tokyo.", result.TextContent())

	c := a.Chat()
	require.Equal(t, 4, c.Len())
	assert.Equal(t, role.User, c.At(0).Role)
	assert.Equal(t, role.Assistant, c.At(1).Role)
	assert.Equal(t, role.Tool, c.At(2).Role)
	assert.Equal(t, role.Assistant, c.At(3).Role)

	results := c.At(2).ToolResults()
	require.Len(t, results, 1)
	assert.Equal(t, "toolu_01", results[0].ToolCallID)
	assert.Equal(t, "18°C, clear", results[0].Content)
	assert.False(t, results[0].IsError)
}

func TestRunRoundTripCorrespondence(t *testing.T) {
	p := &sequenceCompleter{
		replies: []message.Message{
			message.New(role.Assistant,
				content.ToolCall{ID: "c1", Name: "echo", Arguments: `{"n":1}`},
				content.ToolCall{ID: "c2", Name: "no_such_tool", Arguments: `{}`},
				content.ToolCall{ID: "c3", Name: "echo", Arguments: `{"n":3}`},
			),
			message.NewText(role.Assistant, "done"),
		},
	}
	a := New(p, newEchoToolBox(), Options{})

	_, err := a.Run(context.Background(), "go")
	require.NoError(t, err)

	toolTurn := a.Chat().At(2)
	results := toolTurn.ToolResults()
	require.Len(t, results, 3)

	// Exactly one result per request, in request order, matched by ID.
	assert.Equal(t, "c1", results[0].ToolCallID)
	assert.Equal(t, "c2", results[1].ToolCallID)
	assert.Equal(t, "c3", results[2].ToolCallID)
	assert.False(t, results[0].IsError)
	assert.True(t, results[1].IsError)
	assert.False(t, results[2].IsError)
}

func TestRunPartialFailureIsolation(t *testing.T) {
	tb := newEchoToolBox()
	tb.Register(toolbox.Tool{
		Name:        "flaky",
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Handler: func(_ context.Context, _ json.RawMessage) (string, error) {
			return "", errors.New("backend down")
		},
	})

	p := &sequenceCompleter{
		replies: []message.Message{
			message.New(role.Assistant,
				content.ToolCall{ID: "c1", Name: "echo", Arguments: `{}`},
				content.ToolCall{ID: "c2", Name: "flaky", Arguments: `{}`},
			),
			message.NewText(role.Assistant, "recovered"),
		},
	}
	a := New(p, tb, Options{})

	result, err := a.Run(context.Background(), "go")

	// The failing tool does not abort the loop.
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.TextContent())

	results := a.Chat().At(2).ToolResults()
	require.Len(t, results, 2)
	assert.False(t, results[0].IsError)
	assert.True(t, results[1].IsError)
	assert.Contains(t, results[1].Content, "backend down")
}

func TestRunTerminatesAtLoopBudget(t *testing.T) {
	p := &loopingCompleter{}
	a := New(p, newEchoToolBox(), Options{MaxIterations: 3})

	_, err := a.Run(context.Background(), "go")

	require.ErrorIs(t, err, ErrLoopBudgetExceeded)
	assert.Equal(t, 3, p.calls)
}

func TestRunUnknownToolRecovers(t *testing.T) {
	p := &sequenceCompleter{
		replies: []message.Message{
			message.New(role.Assistant,
				content.ToolCall{ID: "c1", Name: "ghost", Arguments: `{}`},
			),
			message.NewText(role.Assistant, "I'll answer directly instead."),
		},
	}
	a := New(p, newEchoToolBox(), Options{})

	result, err := a.Run(context.Background(), "go")

	require.NoError(t, err)
	assert.Equal(t, "I'll answer directly instead.", result.TextContent())

	results := a.Chat().At(2).ToolResults()
	require.Len(t, results, 1)
	assert.True(t, results[0].IsError)
	assert.Contains(t, results[0].Content, "tool not found")
}

func TestRunConnectionFailureAborts(t *testing.T) {
	tb := newEchoToolBox()
	tb.Register(toolbox.Tool{
		Name:        "dead",
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Handler: func(_ context.Context, _ json.RawMessage) (string, error) {
			return "", &gateway.ConnError{Op: "call tool dead", Err: errors.New("pipe closed")}
		},
	})

	p := &sequenceCompleter{
		replies: []message.Message{
			message.New(role.Assistant,
				content.ToolCall{ID: "c1", Name: "echo", Arguments: `{}`},
				content.ToolCall{ID: "c2", Name: "dead", Arguments: `{}`},
			),
		},
	}
	a := New(p, tb, Options{})

	_, err := a.Run(context.Background(), "go")

	require.Error(t, err)
	assert.True(t, gateway.IsConnError(err))
	// Only one completion happened; the loop did not continue.
	assert.Equal(t, 1, p.index)

	// The tool turn was still assembled with one entry per request.
	results := a.Chat().At(2).ToolResults()
	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].ToolCallID)
	assert.Equal(t, "c2", results[1].ToolCallID)
}

func TestRunAPIErrorPropagates(t *testing.T) {
	apiErr := &provider.APIError{StatusCode: 429, Message: "rate limited"}
	a := New(&errorCompleter{err: apiErr}, newEchoToolBox(), Options{})

	_, err := a.Run(context.Background(), "go")

	var got *provider.APIError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 429, got.StatusCode)
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()

	assert.Equal(t, DefaultMaxIterations, opts.MaxIterations)
	assert.Equal(t, DefaultCompleteTimeout, opts.CompleteTimeout)
	assert.Equal(t, DefaultToolTimeout, opts.ToolTimeout)

	custom := Options{MaxIterations: 2}.withDefaults()
	assert.Equal(t, 2, custom.MaxIterations)
}
