// Package ollama implements the Ollama provider handler against the local
// /api/chat endpoint, adapted from the teacher's pkg/model/ollama/ollama.go
// but rebuilt against pkg/llm's provider-agnostic contract. Ollama streams
// newline-delimited JSON objects rather than SSE, and supports a "think"
// passthrough and a "keep_alive" directive neither OpenAI endpoint has.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentcore/agentrt/pkg/httpclient"
	"github.com/agentcore/agentrt/pkg/llm"
)

const (
	defaultBaseURL   = "http://localhost:11434"
	defaultTimeout   = 300 * time.Second
	defaultKeepAlive = "5m"
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	KeepAlive  string
	Timeout    time.Duration
	MaxRetries int
}

// Client is the Ollama provider handler.
type Client struct {
	cfg  Config
	http *httpclient.Client
}

// New builds a Client. BaseURL defaults to the local Ollama daemon.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.KeepAlive == "" {
		cfg.KeepAlive = defaultKeepAlive
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	hc := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		httpclient.WithMaxRetries(cfg.MaxRetries),
		httpclient.WithBaseDelay(2*time.Second),
		httpclient.WithHeaderParser(httpclient.ParseOllamaHeaders),
	)
	return &Client{cfg: cfg, http: hc}, nil
}

func (c *Client) Name() string { return "ollama" }

// wire types

type wireMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
}

type wireToolCall struct {
	Function wireFunctionCall `json:"function"`
}

type wireFunctionCall struct {
	Index     int            `json:"index,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type wireRequest struct {
	Model     string         `json:"model"`
	Messages  []wireMessage  `json:"messages"`
	Tools     []wireTool     `json:"tools,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
	Stream    bool           `json:"stream"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Think     any            `json:"think,omitempty"`
}

type wireResponse struct {
	Message         *wireMessage `json:"message,omitempty"`
	Done            bool         `json:"done"`
	DoneReason      string       `json:"done_reason,omitempty"`
	PromptEvalCount int          `json:"prompt_eval_count,omitempty"`
	EvalCount       int          `json:"eval_count,omitempty"`
	Error           string       `json:"error,omitempty"`
}

func buildWireRequest(req llm.Request, cfg Config, stream bool) wireRequest {
	wr := wireRequest{
		Model:     req.Model,
		Stream:    stream,
		KeepAlive: cfg.KeepAlive,
	}

	for _, m := range req.Messages {
		wm := wireMessage{Role: string(m.Role), Content: m.Content}
		if m.Role == llm.RoleTool {
			wm.ToolName = m.Name
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				Function: wireFunctionCall{Name: tc.ToolName, Arguments: tc.Arguments},
			})
		}
		wr.Messages = append(wr.Messages, wm)
	}

	for _, t := range req.Tools {
		wr.Tools = append(wr.Tools, wireTool{
			Type:     "function",
			Function: wireFunction{Name: t.Name, Description: t.Description, Parameters: t.Schema},
		})
	}

	options := map[string]any{}
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		options["top_p"] = *req.TopP
	}
	if req.TopK != nil {
		options["top_k"] = *req.TopK
	}
	if req.MaxTokens != nil {
		options["num_predict"] = *req.MaxTokens
	}
	if len(options) > 0 {
		wr.Options = options
	}

	// think is passed through verbatim: Ollama accepts either a bool or
	// one of "low"/"medium"/"high" depending on model family.
	switch strings.ToLower(req.Think) {
	case "":
	case "true":
		wr.Think = true
	case "false":
		wr.Think = false
	default:
		wr.Think = req.Think
	}

	return wr
}

func toolCallsFrom(wtcs []wireToolCall) []llm.ToolCallRequest {
	calls := make([]llm.ToolCallRequest, 0, len(wtcs))
	for i, wtc := range wtcs {
		calls = append(calls, llm.ToolCallRequest{
			ID:        fmt.Sprintf("call_%d", i),
			ToolName:  wtc.Function.Name,
			Arguments: wtc.Function.Arguments,
		})
	}
	return calls
}

func (c *Client) endpoint() string { return c.cfg.BaseURL + "/api/chat" }

// Complete performs one non-streaming request.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	wr := buildWireRequest(req, c.cfg, false)
	body, err := json.Marshal(wr)
	if err != nil {
		return llm.Response{}, fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return llm.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, "ollama", httpReq)
	if err != nil {
		return llm.Response{}, err
	}
	defer resp.Body.Close()

	var wresp wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wresp); err != nil {
		return llm.Response{}, fmt.Errorf("ollama: decode response: %w", err)
	}
	if wresp.Error != "" {
		return llm.Response{}, fmt.Errorf("ollama: %s", wresp.Error)
	}

	out := llm.Response{TokensUsed: wresp.PromptEvalCount + wresp.EvalCount}
	if wresp.Message != nil {
		out.Content = wresp.Message.Content
		out.ToolCalls = toolCallsFrom(wresp.Message.ToolCalls)
	}
	return out, nil
}

// Stream performs one streaming request over newline-delimited JSON. The
// returned channel is always closed; callers MUST drain it to completion
// (or cancel ctx) before issuing the next request on the same conversation,
// since Ollama serializes requests to a given model and a half-read
// response body leaves the connection — and the model's execution slot —
// occupied.
func (c *Client) Stream(ctx context.Context, req llm.Request) (<-chan llm.StreamEvent, error) {
	wr := buildWireRequest(req, c.cfg, true)
	body, err := json.Marshal(wr)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, "ollama", httpReq)
	if err != nil {
		return nil, err
	}

	ch := make(chan llm.StreamEvent)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		if err := readNDJSON(ctx, resp.Body, ch); err != nil {
			select {
			case ch <- llm.StreamEvent{Kind: llm.StreamError, Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch, nil
}

func readNDJSON(ctx context.Context, body io.Reader, ch chan<- llm.StreamEvent) error {
	reader := bufio.NewReader(body)
	toolCalls := map[int]*llm.ToolCallRequest{}
	order := []int{}
	tokens := 0

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("ollama: read stream: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var chunk wireResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return fmt.Errorf("ollama: %s", chunk.Error)
		}
		if chunk.Message != nil && chunk.Message.Content != "" {
			select {
			case ch <- llm.StreamEvent{Kind: llm.StreamText, Text: chunk.Message.Content}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if chunk.Message != nil {
			for i, tc := range chunk.Message.ToolCalls {
				idx := tc.Function.Index
				if idx == 0 && len(chunk.Message.ToolCalls) > 1 {
					idx = i
				}
				if _, seen := toolCalls[idx]; !seen {
					toolCalls[idx] = &llm.ToolCallRequest{ID: fmt.Sprintf("call_%d", idx), ToolName: tc.Function.Name, Arguments: tc.Function.Arguments}
					order = append(order, idx)
				} else if tc.Function.Arguments != nil {
					for k, v := range tc.Function.Arguments {
						toolCalls[idx].Arguments[k] = v
					}
				}
			}
		}
		if chunk.Done {
			tokens = chunk.PromptEvalCount + chunk.EvalCount
			break
		}
	}

	if len(order) > 0 {
		calls := make([]llm.ToolCallRequest, 0, len(order))
		for _, idx := range order {
			calls = append(calls, *toolCalls[idx])
		}
		select {
		case ch <- llm.StreamEvent{Kind: llm.StreamToolCall, ToolCalls: calls}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case ch <- llm.StreamEvent{Kind: llm.StreamDone, TokensUsed: tokens}:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
