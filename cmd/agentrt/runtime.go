package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/agentcore/agentrt/internal/envconfig"
	"github.com/agentcore/agentrt/pkg/agent"
	"github.com/agentcore/agentrt/pkg/chat"
	"github.com/agentcore/agentrt/pkg/llm/ollama"
	"github.com/agentcore/agentrt/pkg/llm/openai"
	"github.com/agentcore/agentrt/pkg/metrics"
	"github.com/agentcore/agentrt/pkg/ratelimit"
	"github.com/agentcore/agentrt/pkg/retry"
	"github.com/agentcore/agentrt/pkg/tool"
	"github.com/agentcore/agentrt/pkg/tracelog"
	"github.com/agentcore/agentrt/pkg/tracestore"
)

// agentFlags are the flags shared by the chat and repl commands: which
// agent to build and what to say to it.
type agentFlags struct {
	Provider string `help:"Provider (openai, ollama)." default:"openai"`
	Model    string `help:"Model name. Required unless --agent-config sets one."`
	Name     string `help:"Agent name." default:"assistant"`

	Instructions string  `help:"System instructions for the agent."`
	Temperature  float64 `help:"Sampling temperature in [0,2]." default:"0.7"`
	MaxTokens    int     `help:"Max tokens to generate." default:"1024"`
	Think        string  `help:"Ollama reasoning effort: low, medium, high, true, false."`

	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics at this address (empty disables)."`
	AgentConfig string `name:"agent-config" help:"YAML file overlaying provider/model/instructions defaults." type:"path"`
}

// buildOrchestrator assembles an Orchestrator and an Agent from CLI flags
// and the environment, following spec.md §6's per-provider *_API_KEY /
// *_TIMEOUT / *_MAX_RETRIES / *_MAX_TOOL_ITERATIONS /
// *_MAX_CONCURRENT_REQUESTS convention.
func buildOrchestrator(f agentFlags) (*chat.Orchestrator, *agent.Agent, *metrics.Recorder, error) {
	if err := envconfig.Load(); err != nil {
		return nil, nil, nil, fmt.Errorf("load .env: %w", err)
	}

	if f.AgentConfig != "" {
		if err := loadAgentConfigFile(f.AgentConfig, &f); err != nil {
			return nil, nil, nil, err
		}
	}
	if f.Model == "" {
		return nil, nil, nil, fmt.Errorf("model is required: pass --model or set it in --agent-config")
	}

	providerPrefix := "OPENAI"
	if f.Provider == string(agent.ProviderOllama) {
		providerPrefix = "OLLAMA"
	}

	resilienceEnabled := envconfig.Bool("RESILIENCE_ENABLED", true)
	maxConcurrent := envconfig.Int(providerPrefix+"_MAX_CONCURRENT_REQUESTS", 4)
	maxRetries := envconfig.Int(providerPrefix+"_MAX_RETRIES", 3)
	timeout := envconfig.Duration(providerPrefix+"_TIMEOUT", 60*time.Second)
	maxToolIterations := envconfig.Int(providerPrefix+"_MAX_TOOL_ITERATIONS", 100)

	var limiterLimit int64 = int64(maxConcurrent)
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = maxRetries
	if !resilienceEnabled {
		limiterLimit = 0
		policy.MaxAttempts = 1
	}

	var recorder *metrics.Recorder
	if f.MetricsAddr != "" {
		recorder = metrics.New("agentrt")
		go func() {
			_ = http.ListenAndServe(f.MetricsAddr, recorder.Handler())
		}()
	}

	var store tracestore.Store = tracestore.NewMemoryStore(1000)
	if dir := envconfig.String("TRACE_STORE_PATH", ""); dir != "" {
		fileStore, err := tracestore.NewFileStore(dir, 100*1024*1024, nil)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open trace store: %w", err)
		}
		store = fileStore
	}
	logger := tracelog.New(store, nil)

	registry := tool.NewRegistry()
	validator := tool.NewValidator()
	if err := registerBuiltinTools(registry); err != nil {
		return nil, nil, nil, err
	}

	limiter := ratelimit.New(limiterLimit)
	orchestrator := chat.New(limiter, policy, logger, validator, "cli-session")
	orchestrator.Metrics = recorder
	orchestrator.ToolMetrics = recorder

	handler, err := buildHandler(f.Provider, providerPrefix, timeout, maxRetries)
	if err != nil {
		return nil, nil, nil, err
	}

	cfgMap := map[string]any{
		"temperature": f.Temperature,
		"max_tokens":  f.MaxTokens,
	}
	if f.Think != "" {
		cfgMap["think"] = f.Think
	}
	cfg, err := agent.ValidateConfigMap(cfgMap)
	if err != nil {
		return nil, nil, nil, err
	}

	a, err := agent.New(f.Name, agent.Provider(f.Provider), f.Model, handler, registry, cfg, 20)
	if err != nil {
		return nil, nil, nil, err
	}
	if f.Instructions != "" {
		a.WithInstructions(f.Instructions)
	}
	a.WithMaxIterations(maxToolIterations)

	return orchestrator, a, recorder, nil
}

func buildHandler(provider, providerPrefix string, timeout time.Duration, maxRetries int) (agent.Handler, error) {
	switch agent.Provider(provider) {
	case agent.ProviderOpenAI:
		client, err := openai.New(openai.Config{
			APIKey:     envconfig.String(providerPrefix+"_API_KEY", ""),
			BaseURL:    envconfig.String(providerPrefix+"_BASE_URL", ""),
			Timeout:    timeout,
			MaxRetries: maxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("build openai client: %w", err)
		}
		return client, nil
	case agent.ProviderOllama:
		client, err := ollama.New(ollama.Config{
			BaseURL:    envconfig.String(providerPrefix+"_BASE_URL", ""),
			KeepAlive:  envconfig.String(providerPrefix+"_KEEP_ALIVE", ""),
			Timeout:    timeout,
			MaxRetries: maxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("build ollama client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
}
