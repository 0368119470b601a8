// Package gateway owns the single connection to one MCP tool server and
// translates between the orchestrator's tool calls and the MCP protocol,
// using the official MCP Go SDK.
package gateway

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/soracase/mcphost/pkg/toolbox"
)

// Gateway holds one MCP client session over a stdio subprocess transport.
// All operations are blocking request/response exchanges; the session is
// owned by one orchestrator and is not shared.
type Gateway struct {
	client  *mcp.Client
	session *mcp.ClientSession
}

// Connect spawns the tool server process and performs the MCP handshake.
// The SDK initializes the session automatically during Connect.
func Connect(ctx context.Context, command string, args ...string) (*Gateway, error) {
	transport := &mcp.CommandTransport{
		Command: exec.Command(command, args...), //nolint:gosec // command is caller-provided by design
	}

	return connectTransport(ctx, transport)
}

// connectTransport connects over the given transport. Used by Connect and by
// tests with in-memory transports.
func connectTransport(ctx context.Context, transport mcp.Transport) (*Gateway, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "mcphost",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, &ConnError{Op: "connect", Err: err}
	}

	return &Gateway{client: client, session: session}, nil
}

// ListTools fetches the tools currently offered by the server and returns
// them as toolbox.Tool values whose handlers call back through CallTool.
// The gateway never caches: each call reflects live server state. Caching
// for the lifetime of the connection is the orchestrator's job.
func (g *Gateway) ListTools(ctx context.Context) ([]toolbox.Tool, error) {
	if g == nil || g.session == nil {
		return nil, &ConnError{Op: "list tools", Err: errNotConnected}
	}

	result, err := g.session.ListTools(ctx, nil)
	if err != nil {
		return nil, &ConnError{Op: "list tools", Err: err}
	}

	tools := make([]toolbox.Tool, 0, len(result.Tools))
	for _, sdkTool := range result.Tools {
		t, err := fromSDKTool(sdkTool, g)
		if err != nil {
			return nil, &ConnError{Op: "convert tool " + sdkTool.Name, Err: err}
		}
		tools = append(tools, t)
	}

	return tools, nil
}

// CallTool invokes a named tool on the server and blocks until it responds
// or ctx expires. A failure reported by the tool itself comes back as a
// *ToolError; a transport failure or timeout comes back as a *ConnError.
func (g *Gateway) CallTool(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
	if g == nil || g.session == nil {
		return "", &ConnError{Op: "call tool", Err: errNotConnected}
	}

	var args map[string]any
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &args); err != nil {
			return "", &ToolError{Tool: name, Msg: "arguments are not a JSON object: " + err.Error()}
		}
	}

	result, err := g.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", &ConnError{Op: "call tool " + name, Err: err}
	}

	text := extractText(result)

	if result.IsError {
		return "", &ToolError{Tool: name, Msg: text}
	}

	return text, nil
}

// Close terminates the session and releases the server subprocess. It is
// idempotent and safe to call on a gateway that never connected. The SDK
// handles subprocess shutdown: closing the session closes stdin, waits with
// a timeout, and escalates through SIGTERM/SIGKILL.
func (g *Gateway) Close() error {
	if g == nil || g.session == nil {
		return nil
	}

	session := g.session
	g.session = nil

	return session.Close()
}

// fromSDKTool converts an SDK *mcp.Tool to a toolbox.Tool. The handler
// closure calls CallTool on the gateway.
func fromSDKTool(sdkTool *mcp.Tool, g *Gateway) (toolbox.Tool, error) {
	schemaBytes, err := json.Marshal(sdkTool.InputSchema)
	if err != nil {
		return toolbox.Tool{}, err
	}

	name := sdkTool.Name

	return toolbox.Tool{
		Name:        sdkTool.Name,
		Description: sdkTool.Description,
		InputSchema: json.RawMessage(schemaBytes),
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			return g.CallTool(ctx, name, input)
		},
	}, nil
}

// extractText joins all TextContent items from a CallToolResult with newlines.
func extractText(result *mcp.CallToolResult) string {
	var texts []string
	for _, item := range result.Content {
		if tc, ok := item.(*mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}

	return strings.Join(texts, "\n")
}
