// Package agent defines the Agent type: a named binding of a provider
// handler, model, instructions, tools, and bounded conversation history.
// Config validation happens once at construction against the closed key
// set the runtime recognizes; a turn never re-validates it.
package agent

import (
	"context"
	"fmt"

	"github.com/agentcore/agentrt/pkg/llm"
	"github.com/agentcore/agentrt/pkg/tool"
)

// Provider names the closed set of supported model handlers.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

// Handler is what the orchestrator needs from a provider client: one
// non-streaming call and one streaming call, both taking a fully-built
// llm.Request.
type Handler interface {
	Name() string
	Complete(ctx context.Context, req llm.Request) (llm.Response, error)
	Stream(ctx context.Context, req llm.Request) (<-chan llm.StreamEvent, error)
}

// Config holds the recognized generation parameters. Pointer fields are
// nil and Think is empty when unset, so the provider handler can apply its
// own defaults.
type Config struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
	TopK        *int
	Think       string
	Stream      bool
}

// recognizedKeys is the closed set from the external interface contract;
// an Agent built from a raw map[string]any (e.g. loaded from YAML) must
// reject anything outside it.
var recognizedKeys = map[string]bool{
	"temperature": true,
	"max_tokens":  true,
	"top_p":       true,
	"top_k":       true,
	"think":       true,
	"stream":      true,
}

// ConfigurationError reports an invalid Agent construction: unknown config
// key, out-of-range value, or a missing or unsupported required field. Tool
// name collisions are reported by tool.ConfigurationError from the
// registry instead. Always raised at construction, never mid-turn.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "agentrt: configuration error: " + e.Reason }

// ValidateConfigMap checks a raw config map against the closed key set and
// each key's validation rule, returning a typed Config on success.
func ValidateConfigMap(raw map[string]any) (Config, error) {
	var cfg Config
	for k := range raw {
		if !recognizedKeys[k] {
			return Config{}, &ConfigurationError{Reason: fmt.Sprintf("unknown config key %q", k)}
		}
	}

	if v, ok := raw["temperature"]; ok {
		f, ok := toFloat(v)
		if !ok || f < 0.0 || f > 2.0 {
			return Config{}, &ConfigurationError{Reason: "temperature must be a number in [0.0, 2.0]"}
		}
		cfg.Temperature = &f
	}
	if v, ok := raw["max_tokens"]; ok {
		n, ok := toInt(v)
		if !ok || n <= 0 {
			return Config{}, &ConfigurationError{Reason: "max_tokens must be a positive integer"}
		}
		cfg.MaxTokens = &n
	}
	if v, ok := raw["top_p"]; ok {
		f, ok := toFloat(v)
		if !ok || f < 0.0 || f > 1.0 {
			return Config{}, &ConfigurationError{Reason: "top_p must be a number in [0.0, 1.0]"}
		}
		cfg.TopP = &f
	}
	if v, ok := raw["top_k"]; ok {
		n, ok := toInt(v)
		if !ok || n <= 0 {
			return Config{}, &ConfigurationError{Reason: "top_k must be a positive integer"}
		}
		cfg.TopK = &n
	}
	if v, ok := raw["think"]; ok {
		switch t := v.(type) {
		case bool:
			if t {
				cfg.Think = "true"
			} else {
				cfg.Think = "false"
			}
		case string:
			switch t {
			case "low", "medium", "high":
				cfg.Think = t
			default:
				return Config{}, &ConfigurationError{Reason: `think must be a bool or one of "low", "medium", "high"`}
			}
		default:
			return Config{}, &ConfigurationError{Reason: "think must be a bool or string"}
		}
	}
	if v, ok := raw["stream"]; ok {
		b, ok := v.(bool)
		if !ok {
			return Config{}, &ConfigurationError{Reason: "stream must be a bool"}
		}
		cfg.Stream = b
	}

	return cfg, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

// Agent binds a provider handler, model, instructions, tool set, and its
// own bounded history. Agent history is owned by exactly one Agent;
// concurrent turns on the same Agent are not supported by this package —
// callers serialize, or use distinct Agents.
type Agent struct {
	Name         string
	Provider     Provider
	Model        string
	Instructions string
	Config       Config
	Handler      Handler
	Tools        *tool.Registry
	History      *History

	MaxIterations int
}

const defaultMaxIterations = 100

// New constructs an Agent from an already-built tool.Registry; the
// registry itself rejects system/agent tool name collisions at
// registration time (tool.Registry.RegisterAgent), so New only validates
// its own required fields. historyMaxSize bounds the FIFO conversation
// buffer; <= 0 uses the package default.
func New(name string, provider Provider, model string, handler Handler, tools *tool.Registry, cfg Config, historyMaxSize int) (*Agent, error) {
	if name == "" {
		return nil, &ConfigurationError{Reason: "agent name must not be empty"}
	}
	switch provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unsupported provider %q", provider)}
	}
	if model == "" {
		return nil, &ConfigurationError{Reason: "model must not be empty"}
	}
	if handler == nil {
		return nil, &ConfigurationError{Reason: "handler must not be nil"}
	}
	if tools == nil {
		return nil, &ConfigurationError{Reason: "tool registry must not be nil"}
	}

	return &Agent{
		Name:          name,
		Provider:      provider,
		Model:         model,
		Handler:       handler,
		Tools:         tools,
		Config:        cfg,
		History:       NewHistory(historyMaxSize),
		MaxIterations: defaultMaxIterations,
	}, nil
}

// WithInstructions sets the system instructions and returns the Agent for
// chaining at construction time.
func (a *Agent) WithInstructions(instructions string) *Agent {
	a.Instructions = instructions
	return a
}

// WithMaxIterations overrides the default tool-calling iteration cap.
func (a *Agent) WithMaxIterations(n int) *Agent {
	if n > 0 {
		a.MaxIterations = n
	}
	return a
}
