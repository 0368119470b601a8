// Package agent implements the orchestration loop that turns one user query
// into one final answer: it alternates between model inference and tool
// execution until the model stops requesting tools or the iteration budget
// runs out.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/soracase/mcphost/pkg/chats/chat"
	"github.com/soracase/mcphost/pkg/chats/content"
	"github.com/soracase/mcphost/pkg/chats/message"
	"github.com/soracase/mcphost/pkg/chats/role"
	"github.com/soracase/mcphost/pkg/gateway"
	"github.com/soracase/mcphost/pkg/providers/provider"
	"github.com/soracase/mcphost/pkg/toolbox"
)

// ErrLoopBudgetExceeded is returned when the infer/act cycle reaches
// Options.MaxIterations without the model producing a final answer. It is a
// distinct outcome, never a silently truncated answer.
var ErrLoopBudgetExceeded = errors.New("agent: loop budget exceeded")

// Defaults applied by Options.withDefaults.
const (
	DefaultMaxIterations   = 10
	DefaultCompleteTimeout = 2 * time.Minute
	DefaultToolTimeout     = 1 * time.Minute
)

// Options configures the loop. Zero fields take the package defaults; the
// iteration bound is always enforced to guarantee termination.
type Options struct {
	// MaxIterations bounds the number of inference calls per query.
	MaxIterations int
	// CompleteTimeout bounds each model completion call.
	CompleteTimeout time.Duration
	// ToolTimeout bounds each individual tool invocation.
	ToolTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.CompleteTimeout <= 0 {
		o.CompleteTimeout = DefaultCompleteTimeout
	}
	if o.ToolTimeout <= 0 {
		o.ToolTimeout = DefaultToolTimeout
	}
	return o
}

// Agent owns the conversation for the duration of one query and drives the
// decide→act→observe loop against a Completer and the cached tool set.
// Agent is not safe for concurrent use; queries run one at a time.
type Agent struct {
	completer provider.Completer
	tools     *toolbox.ToolBox
	opts      Options
	chat      *chat.Chat
}

// New creates an Agent. The ToolBox holds the tool descriptors cached once
// per gateway connection.
func New(completer provider.Completer, tools *toolbox.ToolBox, opts Options) *Agent {
	return &Agent{
		completer: completer,
		tools:     tools,
		opts:      opts.withDefaults(),
	}
}

// Chat returns the conversation built by the most recent Run. It is meant
// for observation after the fact, not for mutation.
func (a *Agent) Chat() *chat.Chat {
	return a.chat
}

// Run processes one user query to completion. Each iteration sends the full
// conversation plus tool descriptors to the model; a reply without tool
// calls is the final answer. A reply with tool calls triggers an act step
// whose results are appended as a single tool turn, and the loop continues.
//
// Failures follow the taxonomy: tool-level failures are absorbed into the
// conversation as is-error results; a gateway connection failure or a model
// API failure aborts the query; exceeding the iteration bound returns
// ErrLoopBudgetExceeded.
func (a *Agent) Run(ctx context.Context, query string) (message.Message, error) {
	c := chat.New(message.NewText(role.User, query))
	a.chat = c

	for i := 0; i < a.opts.MaxIterations; i++ {
		reply, err := a.complete(ctx, c)
		if err != nil {
			return message.Message{}, err
		}
		c.Append(reply)

		calls := reply.ToolCalls()
		if len(calls) == 0 {
			return reply, nil
		}

		results, err := a.act(ctx, calls)
		c.Append(message.New(role.Tool, results...))
		if err != nil {
			return message.Message{}, err
		}
	}

	return message.Message{}, ErrLoopBudgetExceeded
}

// complete performs one inference call under the configured timeout.
func (a *Agent) complete(ctx context.Context, c *chat.Chat) (message.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.CompleteTimeout)
	defer cancel()

	return a.completer.Complete(ctx, c, a.tools.Tools())
}

// act executes every tool call from one assistant turn. Calls are dispatched
// concurrently, each under its own timeout, and collection waits for all of
// them: a failure in one never cancels the others. Results come back in
// request order, one per call, correlated by call identifier.
//
// The returned error is non-nil only when some invocation hit a transport
// failure; the results slice is complete either way so the conversation
// stays consistent.
func (a *Agent) act(ctx context.Context, calls []content.ToolCall) ([]content.Part, error) {
	results := make([]content.Part, len(calls))
	errs := make([]error, len(calls))

	var wg sync.WaitGroup
	for i, tc := range calls {
		wg.Add(1)
		go func(i int, tc content.ToolCall) {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, a.opts.ToolTimeout)
			defer cancel()

			slog.Debug("calling tool", "name", tc.Name, "call_id", tc.ID)
			results[i], errs[i] = a.tools.Call(cctx, tc)
		}(i, tc)
	}
	wg.Wait()

	// A transport failure means the connection can no longer be trusted.
	// The query aborts, but only after every in-flight call was collected.
	for _, err := range errs {
		if gateway.IsConnError(err) {
			return results, err
		}
	}

	return results, nil
}
