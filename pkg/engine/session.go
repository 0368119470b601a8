package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/soracase/mcphost/pkg/agent"
	"github.com/soracase/mcphost/pkg/gateway"
	"github.com/soracase/mcphost/pkg/providers/provider"
)

// QuitCommand is the reserved input that ends the session.
const QuitCommand = "quit"

// Session drives the interactive loop: read one query, run the agent,
// print a labeled outcome, repeat. Queries are processed one at a time,
// end to end.
//
// On a tool server connection failure the session terminates instead of
// reconnecting: the gateway owns a single subprocess and a lost transport
// is not retried. Every other failure ends only the current query.
type Session struct {
	agent     *agent.Agent
	in        io.Reader
	out       io.Writer
	toolNames []string
}

// NewSession creates a Session reading queries from in and writing to out.
// toolNames is the cached tool listing shown in the welcome banner.
func NewSession(a *agent.Agent, in io.Reader, out io.Writer, toolNames []string) *Session {
	return &Session{
		agent:     a,
		in:        in,
		out:       out,
		toolNames: toolNames,
	}
}

// Run executes the interactive loop until the user quits, input ends, the
// context is cancelled, or the tool server connection is lost. Only the
// last case returns a non-nil error.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "\nMCP host started. Connected tools: %s\n", strings.Join(s.toolNames, ", "))
	fmt.Fprintf(s.out, "Type your queries or %q to exit.\n", QuitCommand)

	scanner := bufio.NewScanner(s.in)

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(s.out, "\nInterrupted. Goodbye!")
			return nil
		}

		fmt.Fprint(s.out, "\nQuery: ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("engine: read input: %w", err)
			}
			fmt.Fprintln(s.out)
			return nil
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.EqualFold(query, QuitCommand) {
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		}

		reply, err := s.agent.Run(ctx, query)
		if err != nil {
			if done, runErr := s.reportError(ctx, err); done {
				return runErr
			}
			continue
		}

		fmt.Fprintf(s.out, "\n%s\n", reply.TextContent())
	}
}

// reportError prints a labeled message for a failed query and decides
// whether the session ends. It returns (true, err) when the session should
// stop, (false, nil) when the next query may proceed.
func (s *Session) reportError(ctx context.Context, err error) (bool, error) {
	switch {
	case errors.Is(err, agent.ErrLoopBudgetExceeded):
		fmt.Fprintln(s.out, "\nCould not complete the request: the tool loop hit its iteration limit.")
		return false, nil

	case gateway.IsConnError(err):
		fmt.Fprintf(s.out, "\nTool server connection lost: %v\n", err)
		return true, err

	case ctx.Err() != nil:
		fmt.Fprintln(s.out, "\nInterrupted. Goodbye!")
		return true, nil

	default:
		var apiErr *provider.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintf(s.out, "\nModel API error: %v\nThe next query starts a fresh conversation.\n", apiErr)
		} else {
			fmt.Fprintf(s.out, "\nError: %v\n", err)
		}
		return false, nil
	}
}
