// Command mcphost is an interactive chat host for one MCP tool server.
// It reads natural-language queries, lets the Anthropic Messages API decide
// which of the server's tools to call, and prints the final answer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/soracase/mcphost/pkg/agent"
	"github.com/soracase/mcphost/pkg/engine"
	"github.com/soracase/mcphost/pkg/gateway"
	"github.com/soracase/mcphost/pkg/providers/anthropic"
	"github.com/soracase/mcphost/pkg/toolbox"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mcphost [flags] <path_to_server>\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  mcphost ../mcp-server/server.py\n")
		fmt.Fprintf(os.Stderr, "  mcphost /path/to/weather-server.js\n\nFlags:\n")
		flag.PrintDefaults()
	}

	configPath := flag.String("config", "", "path to configuration file (optional)")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	model := flag.String("model", "", "model name (overrides config)")
	verbose := flag.Bool("verbose", false, "enable debug logging of tool calls")
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "error: ANTHROPIC_API_KEY is not set")
		os.Exit(1)
	}

	cfg := engine.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = engine.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	if *model != "" {
		cfg.Model = *model
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, apiKey, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run connects the gateway, caches the tool listing, assembles the agent,
// and drives the interactive session. The gateway is released on every exit
// path via the deferred Close.
func run(ctx context.Context, cfg engine.Config, apiKey, target string) error {
	command, args, err := serverCommand(target)
	if err != nil {
		return err
	}

	gw, err := gateway.Connect(ctx, command, args...)
	if err != nil {
		return err
	}
	defer func() { _ = gw.Close() }()

	tools, err := gw.ListTools(ctx)
	if err != nil {
		return err
	}

	tb := toolbox.New()
	tb.Register(tools...)

	completer := anthropic.New(apiKey, cfg.Model)
	completer.MaxTokens = int64(cfg.MaxTokens)
	completer.System = cfg.SystemPrompt

	opts, err := cfg.AgentOptions()
	if err != nil {
		return err
	}

	a := agent.New(completer, tb, opts)
	sess := engine.NewSession(a, os.Stdin, os.Stdout, tb.Names())

	return sess.Run(ctx)
}

// serverCommand decides how to launch the tool server: .py scripts run under
// uv from the script's directory, .js scripts run under node, and anything
// else is executed directly.
func serverCommand(target string) (string, []string, error) {
	switch {
	case strings.HasSuffix(target, ".py"):
		abs, err := filepath.Abs(target)
		if err != nil {
			return "", nil, fmt.Errorf("resolve server path: %w", err)
		}
		return "uv", []string{"--directory", filepath.Dir(abs), "run", filepath.Base(abs)}, nil

	case strings.HasSuffix(target, ".js"):
		return "node", []string{target}, nil

	default:
		return target, nil, nil
	}
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
