// Package chat implements the Agent Orchestrator: the chat(agent,
// user_message, tool_choice?) use case that assembles the outbound
// message list, drives the tool-calling loop through the Rate Limiter and
// Retry Driver, and transactionally commits history only on success.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agentcore/agentrt/pkg/agent"
	"github.com/agentcore/agentrt/pkg/llm"
	"github.com/agentcore/agentrt/pkg/ratelimit"
	"github.com/agentcore/agentrt/pkg/retry"
	"github.com/agentcore/agentrt/pkg/tool"
	"github.com/agentcore/agentrt/pkg/toolexec"
	"github.com/agentcore/agentrt/pkg/trace"
	"github.com/agentcore/agentrt/pkg/tracelog"
)

// MetricsRecorder receives one observation per completed (successful or
// failed) chat turn. pkg/metrics.Recorder implements it; it is optional
// here to avoid a dependency from chat back onto metrics internals.
type MetricsRecorder interface {
	RecordChat(agentName, provider, model string, success bool, latency time.Duration, tokensUsed int)
}

// Orchestrator runs chat turns for any number of Agents, sharing one Rate
// Limiter, Retry Driver policy, Tool Validator, and Trace Logger across
// all of them.
type Orchestrator struct {
	Limiter   *ratelimit.Limiter
	Policy    retry.Policy
	Logger    *tracelog.Logger
	Validator *tool.Validator
	Metrics   MetricsRecorder
	ToolMetrics toolexec.MetricsRecorder
	SlogLogger *slog.Logger

	sessionID string
}

// New builds an Orchestrator. sessionID tags every root trace this
// Orchestrator creates.
func New(limiter *ratelimit.Limiter, policy retry.Policy, logger *tracelog.Logger, validator *tool.Validator, sessionID string) *Orchestrator {
	return &Orchestrator{
		Limiter:   limiter,
		Policy:    policy,
		Logger:    logger,
		Validator: validator,
		sessionID: sessionID,
	}
}

func assembleMessages(a *agent.Agent, turn []llm.Message) []llm.Message {
	var msgs []llm.Message
	if a.Instructions != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: a.Instructions})
	}
	msgs = append(msgs, a.History.Snapshot()...)
	msgs = append(msgs, turn...)
	return msgs
}

func buildRequest(a *agent.Agent, messages []llm.Message, tools []tool.Tool, choice tool.ToolChoice) llm.Request {
	return llm.Request{
		Model:       a.Model,
		Messages:    messages,
		Tools:       llm.ToolDefinitionsFrom(tools),
		ToolChoice:  choice,
		Temperature: a.Config.Temperature,
		MaxTokens:   a.Config.MaxTokens,
		TopP:        a.Config.TopP,
		TopK:        a.Config.TopK,
		Think:       a.Config.Think,
	}
}

// toolResultText renders a tool.Result for inclusion in history as a
// "tool" message: failures are prefixed with "Error:" so the model can see
// and react to them without aborting the turn.
func toolResultText(r tool.Result) string {
	if !r.Success {
		return "Error: " + r.Error
	}
	return fmt.Sprintf("%v", r.Value)
}

func (o *Orchestrator) recordMetrics(a *agent.Agent, success bool, start time.Time, tokensUsed int) {
	if o.Metrics == nil {
		return
	}
	o.Metrics.RecordChat(a.Name, string(a.Provider), a.Model, success, time.Since(start), tokensUsed)
}

// callProvider acquires the shared rate-limit slot for provider then runs
// fn under the Retry Driver's backoff schedule.
func (o *Orchestrator) callProvider(ctx context.Context, provider string, fn func() error) error {
	release, err := o.Limiter.Acquire(ctx, provider)
	if err != nil {
		return err
	}
	defer release()
	return retry.Do(ctx, o.Policy, o.SlogLogger, func(int) error { return fn() })
}

// Chat runs one non-streaming turn: the user message plus the assistant's
// final text are appended to a.History together on success; on any
// failure, history is untouched and the error is a *ValidationError for an
// empty message, the context's error on cancellation, or a *ChatException
// (whose Cause is an *IterationCapExceededError when the loop hits its cap).
func (o *Orchestrator) Chat(ctx context.Context, a *agent.Agent, userMessage string, toolChoice tool.ToolChoice) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", &ValidationError{Reason: "user_message must not be empty"}
	}

	start := time.Now()
	root := trace.CreateRoot(trace.RunChat, "chat", o.sessionID, a.Name, a.Model, nil)
	ctx = trace.WithAmbient(ctx, root)
	o.Logger.TraceStart(root)

	text, tokensUsed, err := o.runLoop(ctx, root, a, userMessage, toolChoice)
	o.Logger.TraceEnd(root, err)
	o.recordMetrics(a, err == nil, start, tokensUsed)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (o *Orchestrator) runLoop(ctx context.Context, root trace.Context, a *agent.Agent, userMessage string, toolChoice tool.ToolChoice) (string, int, error) {
	executor := toolexec.New(a.Tools, o.Validator, o.Logger).WithMetrics(o.ToolMetrics)

	turn := []llm.Message{{Role: llm.RoleUser, Content: userMessage}}
	effectiveChoice := toolChoice
	totalTokens := 0

	for i := 1; ; i++ {
		if i > a.MaxIterations {
			return "", totalTokens, &ChatException{Cause: &IterationCapExceededError{MaxIterations: a.MaxIterations}}
		}
		if err := ctx.Err(); err != nil {
			return "", totalTokens, err
		}

		child := root.CreateChild(trace.RunIteration, "chat.iteration", map[string]any{"iteration": i})
		o.Logger.IterationStart(child, i)

		effectiveTools, filtered := tool.FilterByToolChoice(a.Tools.Available(a.Name), effectiveChoice)
		effectiveChoice = filtered
		messages := assembleMessages(a, turn)
		req := buildRequest(a, messages, effectiveTools, effectiveChoice)

		o.Logger.LLMRequest(child, string(a.Provider), a.Model, len(messages), len(effectiveTools))

		var resp llm.Response
		callErr := o.callProvider(ctx, string(a.Provider), func() error {
			r, e := a.Handler.Complete(ctx, req)
			if e != nil {
				return e
			}
			resp = r
			return nil
		})
		if callErr != nil {
			return "", totalTokens, &ChatException{Cause: callErr}
		}
		totalTokens += resp.TokensUsed

		if len(resp.ToolCalls) > 0 {
			turn = append(turn, llm.Message{Role: llm.RoleAssistant, ToolCalls: resp.ToolCalls})

			calls := make([]toolexec.Call, len(resp.ToolCalls))
			for j, tc := range resp.ToolCalls {
				calls[j] = toolexec.Call{ToolCallID: tc.ID, ToolName: tc.ToolName, Args: tc.Arguments}
				o.Logger.ToolCall(child, tc.ToolName, tracelog.Preview(fmt.Sprintf("%v", tc.Arguments)))
			}
			results := executor.ExecuteAll(ctx, child, a.Name, nil, calls)
			for j, r := range results {
				turn = append(turn, llm.Message{
					Role:       llm.RoleTool,
					Content:    toolResultText(r),
					ToolCallID: resp.ToolCalls[j].ID,
					Name:       r.ToolName,
				})
			}

			effectiveChoice = tool.Auto()
			continue
		}

		o.Logger.LLMResponse(child, time.Since(child.StartTime), tracelog.Preview(resp.Content), 0, resp.TokensUsed)
		a.History.AppendAll(llm.Message{Role: llm.RoleUser, Content: userMessage}, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
		return resp.Content, totalTokens, nil
	}
}

// ChatStream runs one streaming turn. The returned channel always closes;
// callers must drain it (or cancel ctx) to completion — an Ollama handler
// in particular keeps its model execution slot occupied until the
// response body is fully read. Text deltas are forwarded immediately;
// history is committed only when the turn ends with no error, just before
// the channel closes.
func (o *Orchestrator) ChatStream(ctx context.Context, a *agent.Agent, userMessage string, toolChoice tool.ToolChoice) (<-chan llm.StreamEvent, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, &ValidationError{Reason: "user_message must not be empty"}
	}

	start := time.Now()
	root := trace.CreateRoot(trace.RunChat, "chat", o.sessionID, a.Name, a.Model, nil)
	ctx = trace.WithAmbient(ctx, root)
	o.Logger.TraceStart(root)

	out := make(chan llm.StreamEvent)
	go func() {
		defer close(out)
		_, tokensUsed, err := o.runStreamLoop(ctx, root, a, userMessage, toolChoice, out)
		o.Logger.TraceEnd(root, err)
		o.recordMetrics(a, err == nil, start, tokensUsed)
		if err != nil {
			select {
			case out <- llm.StreamEvent{Kind: llm.StreamError, Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (o *Orchestrator) runStreamLoop(ctx context.Context, root trace.Context, a *agent.Agent, userMessage string, toolChoice tool.ToolChoice, out chan<- llm.StreamEvent) (string, int, error) {
	executor := toolexec.New(a.Tools, o.Validator, o.Logger).WithMetrics(o.ToolMetrics)

	turn := []llm.Message{{Role: llm.RoleUser, Content: userMessage}}
	effectiveChoice := toolChoice
	totalTokens := 0
	var finalText strings.Builder

	for i := 1; ; i++ {
		if i > a.MaxIterations {
			return "", totalTokens, &ChatException{Cause: &IterationCapExceededError{MaxIterations: a.MaxIterations}}
		}
		if err := ctx.Err(); err != nil {
			return "", totalTokens, err
		}

		child := root.CreateChild(trace.RunIteration, "chat.iteration", map[string]any{"iteration": i})
		o.Logger.IterationStart(child, i)

		effectiveTools, filtered := tool.FilterByToolChoice(a.Tools.Available(a.Name), effectiveChoice)
		effectiveChoice = filtered
		messages := assembleMessages(a, turn)
		req := buildRequest(a, messages, effectiveTools, effectiveChoice)

		o.Logger.LLMRequest(child, string(a.Provider), a.Model, len(messages), len(effectiveTools))

		// streamCtx scopes a single iteration's provider call; it is always
		// canceled before the next iteration starts (defer would not do
		// this, since runStreamLoop's defers only run once, at the whole
		// loop's exit, not per iteration).
		streamCtx, cancelStream := context.WithCancel(ctx)

		var events <-chan llm.StreamEvent
		callErr := o.callProvider(ctx, string(a.Provider), func() error {
			ch, e := a.Handler.Stream(streamCtx, req)
			if e != nil {
				return e
			}
			events = ch
			return nil
		})
		if callErr != nil {
			cancelStream()
			return "", totalTokens, &ChatException{Cause: callErr}
		}

		var toolCalls []llm.ToolCallRequest
		var iterationText strings.Builder
		var streamErr error

	drain:
		for ev := range events {
			switch ev.Kind {
			case llm.StreamText:
				iterationText.WriteString(ev.Text)
				select {
				case out <- ev:
				case <-ctx.Done():
					cancelStream()
					return "", totalTokens, ctx.Err()
				}
			case llm.StreamToolCall:
				toolCalls = ev.ToolCalls
				// Cancel before draining: a tool call stops us from
				// reading the provider's remaining events (the StreamDone
				// it still sends), and the provider goroutine would
				// otherwise block forever on that unread send, holding
				// its HTTP response body open. Canceling tears down the
				// in-flight request so the goroutine's blocked send and
				// its read loop both unblock.
				cancelStream()
				for range events {
				}
				break drain
			case llm.StreamDone:
				totalTokens += ev.TokensUsed
				cancelStream()
				break drain
			case llm.StreamError:
				streamErr = ev.Err
				cancelStream()
				break drain
			}
		}
		cancelStream()
		if streamErr != nil {
			return "", totalTokens, &ChatException{Cause: streamErr}
		}

		if len(toolCalls) > 0 {
			turn = append(turn, llm.Message{Role: llm.RoleAssistant, ToolCalls: toolCalls})

			calls := make([]toolexec.Call, len(toolCalls))
			for j, tc := range toolCalls {
				calls[j] = toolexec.Call{ToolCallID: tc.ID, ToolName: tc.ToolName, Args: tc.Arguments}
				o.Logger.ToolCall(child, tc.ToolName, tracelog.Preview(fmt.Sprintf("%v", tc.Arguments)))
			}
			results := executor.ExecuteAll(ctx, child, a.Name, nil, calls)
			for j, r := range results {
				turn = append(turn, llm.Message{
					Role:       llm.RoleTool,
					Content:    toolResultText(r),
					ToolCallID: toolCalls[j].ID,
					Name:       r.ToolName,
				})
			}

			effectiveChoice = tool.Auto()
			continue
		}

		finalText.WriteString(iterationText.String())
		o.Logger.LLMResponse(child, time.Since(child.StartTime), tracelog.Preview(finalText.String()), 0, totalTokens)
		a.History.AppendAll(llm.Message{Role: llm.RoleUser, Content: userMessage}, llm.Message{Role: llm.RoleAssistant, Content: finalText.String()})
		return finalText.String(), totalTokens, nil
	}
}
