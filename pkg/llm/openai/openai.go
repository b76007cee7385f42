// Package openai implements the OpenAI provider handler: both the
// non-streaming and streaming variants of one tool-calling iteration,
// adapted from the teacher's llms/openai.go request/response shapes but
// rebuilt against pkg/llm's provider-agnostic contract and pkg/httpclient's
// consolidated retry transport.
package openai

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
	"github.com/agentcore/agentrt/pkg/tool"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// Client is the OpenAI provider handler.
type Client struct {
	cfg    Config
	http   *httpclient.Client
}

// New builds a Client. BaseURL defaults to the public OpenAI API.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	hc := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		httpclient.WithMaxRetries(cfg.MaxRetries),
		httpclient.WithBaseDelay(2*time.Second),
		httpclient.WithMaxDelay(30*time.Second),
		httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders),
	)
	return &Client{cfg: cfg, http: hc}, nil
}

func (c *Client) Name() string { return "openai" }

// wire types

type wireMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []wireToolCall   `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Name       string           `json:"name,omitempty"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireFunctionCall `json:"function"`
}

type wireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type wireForcedToolChoice struct {
	Type     string                   `json:"type"`
	Function wireForcedToolChoiceName `json:"function"`
}

type wireForcedToolChoiceName struct {
	Name string `json:"name"`
}

type wireRequest struct {
	Model               string         `json:"model"`
	Messages            []wireMessage  `json:"messages"`
	Tools               []wireTool     `json:"tools,omitempty"`
	ToolChoice          any            `json:"tool_choice,omitempty"`
	Temperature         *float64       `json:"temperature,omitempty"`
	TopP                *float64       `json:"top_p,omitempty"`
	MaxTokens           *int           `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int           `json:"max_completion_tokens,omitempty"`
	Stream              bool           `json:"stream,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []wireToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func buildWireRequest(req llm.Request, stream bool) wireRequest {
	wr := wireRequest{Model: req.Model, Stream: stream}
	for _, m := range req.Messages {
		wm := wireMessage{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID, Name: m.Name}
		for _, tc := range m.ToolCalls {
			args, _ := json.Marshal(tc.Arguments)
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID: tc.ID, Type: "function",
				Function: wireFunctionCall{Name: tc.ToolName, Arguments: string(args)},
			})
		}
		wr.Messages = append(wr.Messages, wm)
	}
	for _, t := range req.Tools {
		wr.Tools = append(wr.Tools, wireTool{
			Type: "function",
			Function: wireFunction{Name: t.Name, Description: t.Description, Parameters: t.Schema},
		})
	}
	if len(req.Tools) > 0 {
		switch req.ToolChoice.Mode {
		case tool.ChoiceSpecific:
			wr.ToolChoice = wireForcedToolChoice{Type: "function", Function: wireForcedToolChoiceName{Name: req.ToolChoice.ToolName}}
		case tool.ChoiceNone, tool.ChoiceRequired:
			wr.ToolChoice = string(req.ToolChoice.Mode)
		default:
			wr.ToolChoice = string(tool.ChoiceAuto)
		}
	}
	wr.Temperature = req.Temperature
	wr.TopP = req.TopP

	// o1-/o3- reasoning models take max_completion_tokens, not max_tokens.
	if req.MaxTokens != nil {
		if strings.HasPrefix(req.Model, "o1") || strings.HasPrefix(req.Model, "o3") {
			wr.MaxCompletionTokens = req.MaxTokens
		} else {
			wr.MaxTokens = req.MaxTokens
		}
	}
	return wr
}

func parseToolCalls(wtcs []wireToolCall) ([]llm.ToolCallRequest, error) {
	calls := make([]llm.ToolCallRequest, 0, len(wtcs))
	for _, wtc := range wtcs {
		var args map[string]any
		if wtc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(wtc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("openai: decode tool call arguments: %w", err)
			}
		}
		calls = append(calls, llm.ToolCallRequest{ID: wtc.ID, ToolName: wtc.Function.Name, Arguments: args})
	}
	return calls, nil
}

// Complete performs one non-streaming request.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	wr := buildWireRequest(req, false)
	body, err := json.Marshal(wr)
	if err != nil {
		return llm.Response{}, fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return llm.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(ctx, "openai", httpReq)
	if err != nil {
		return llm.Response{}, err
	}
	defer resp.Body.Close()

	var wresp wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wresp); err != nil {
		return llm.Response{}, fmt.Errorf("openai: decode response: %w", err)
	}
	if wresp.Error != nil {
		return llm.Response{}, fmt.Errorf("openai: %s", wresp.Error.Message)
	}
	if len(wresp.Choices) == 0 {
		return llm.Response{}, fmt.Errorf("openai: empty choices in response")
	}

	choice := wresp.Choices[0]
	toolCalls, err := parseToolCalls(choice.Message.ToolCalls)
	if err != nil {
		return llm.Response{}, err
	}
	return llm.Response{
		Content:    choice.Message.Content,
		ToolCalls:  toolCalls,
		TokensUsed: wresp.Usage.TotalTokens,
	}, nil
}

// Stream performs one streaming request, sending llm.StreamEvent values on
// the returned channel until it closes. The channel is always closed,
// whether the stream completed, errored, or ctx was canceled.
func (c *Client) Stream(ctx context.Context, req llm.Request) (<-chan llm.StreamEvent, error) {
	wr := buildWireRequest(req, true)
	body, err := json.Marshal(wr)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(ctx, "openai", httpReq)
	if err != nil {
		return nil, err
	}

	ch := make(chan llm.StreamEvent)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		if err := readSSE(ctx, resp.Body, ch); err != nil {
			select {
			case ch <- llm.StreamEvent{Kind: llm.StreamError, Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch, nil
}

type streamDelta struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// readSSE parses the raw "data: ..." lines OpenAI's streaming endpoint
// emits, accumulating tool-call argument fragments by index (a single
// tool call's arguments arrive split across many chunks) until
// "[DONE]" or the stream ends.
func readSSE(ctx context.Context, body io.Reader, ch chan<- llm.StreamEvent) error {
	reader := bufio.NewReader(body)
	toolCallsByIndex := map[int]*llm.ToolCallRequest{}
	argFragments := map[int]*strings.Builder{}
	order := []int{}
	tokens := 0

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("openai: read stream: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var delta streamDelta
		if err := json.Unmarshal([]byte(payload), &delta); err != nil {
			continue
		}
		if delta.Usage != nil {
			tokens = delta.Usage.TotalTokens
		}
		if len(delta.Choices) == 0 {
			continue
		}
		d := delta.Choices[0].Delta
		if d.Content != "" {
			select {
			case ch <- llm.StreamEvent{Kind: llm.StreamText, Text: d.Content}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		for _, tc := range d.ToolCalls {
			if _, seen := toolCallsByIndex[tc.Index]; !seen {
				toolCallsByIndex[tc.Index] = &llm.ToolCallRequest{ID: tc.ID, ToolName: tc.Function.Name}
				argFragments[tc.Index] = &strings.Builder{}
				order = append(order, tc.Index)
			}
			if tc.Function.Arguments != "" {
				argFragments[tc.Index].WriteString(tc.Function.Arguments)
			}
		}
	}

	if len(order) > 0 {
		calls := make([]llm.ToolCallRequest, 0, len(order))
		for _, idx := range order {
			call := *toolCallsByIndex[idx]
			raw := argFragments[idx].String()
			if raw != "" {
				var args map[string]any
				if err := json.Unmarshal([]byte(raw), &args); err == nil {
					call.Arguments = args
				}
			}
			calls = append(calls, call)
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
