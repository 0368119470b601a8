// Package engine assembles the host: configuration loading and the
// interactive session that drives the orchestration loop.
package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/soracase/mcphost/pkg/agent"
	"github.com/soracase/mcphost/pkg/providers/anthropic"
	"gopkg.in/yaml.v3"
)

// Config is the host configuration. All knobs are explicit here rather than
// ambient globals; DefaultConfig documents the defaults.
type Config struct {
	Model         string `yaml:"model"`
	MaxTokens     int    `yaml:"max_tokens"`
	SystemPrompt  string `yaml:"system_prompt"`
	MaxIterations int    `yaml:"max_iterations"`

	// Timeouts are duration strings such as "90s" or "2m".
	CompleteTimeout string `yaml:"complete_timeout"`
	ToolTimeout     string `yaml:"tool_timeout"`
}

// DefaultConfig returns the configuration used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Model:           anthropic.DefaultModel,
		MaxTokens:       anthropic.DefaultMaxTokens,
		MaxIterations:   agent.DefaultMaxIterations,
		CompleteTimeout: agent.DefaultCompleteTimeout.String(),
		ToolTimeout:     agent.DefaultToolTimeout.String(),
	}
}

// LoadConfig reads a YAML file over the defaults. Environment variables
// referenced as ${VAR} or $VAR in the YAML are expanded before parsing, so
// secrets can stay in the environment (e.g. loaded from a .env file).
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("engine: config: model must not be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("engine: config: max_tokens must be positive")
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("engine: config: max_iterations must not be negative")
	}
	if _, err := parseTimeout("complete_timeout", c.CompleteTimeout); err != nil {
		return err
	}
	if _, err := parseTimeout("tool_timeout", c.ToolTimeout); err != nil {
		return err
	}
	return nil
}

// AgentOptions converts the configuration into loop options.
func (c Config) AgentOptions() (agent.Options, error) {
	complete, err := parseTimeout("complete_timeout", c.CompleteTimeout)
	if err != nil {
		return agent.Options{}, err
	}
	tool, err := parseTimeout("tool_timeout", c.ToolTimeout)
	if err != nil {
		return agent.Options{}, err
	}

	return agent.Options{
		MaxIterations:   c.MaxIterations,
		CompleteTimeout: complete,
		ToolTimeout:     tool,
	}, nil
}

func parseTimeout(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("engine: config: %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("engine: config: %s must not be negative", name)
	}
	return d, nil
}
