// Package tracelog implements the Trace Logger: every closed-set trace
// event is emitted as both a structured tracestore.Entry and a matching
// human-readable slog record, so a reader can follow a run either from the
// persisted trace file or from stdout.
package tracelog

import (
	"log/slog"
	"time"

	"github.com/agentcore/agentrt/pkg/trace"
	"github.com/agentcore/agentrt/pkg/tracestore"
)

const (
	previewMinChars = 200
	previewMaxChars = 500
	fieldMaxChars   = 10_000
)

// Logger emits trace events to a tracestore.Store and a slog.Logger in
// lockstep. It holds no per-trace state; every call takes the
// trace.Context that scopes it.
type Logger struct {
	store  tracestore.Store
	logger *slog.Logger
}

// New builds a Logger. A nil store disables persistence (log-only); a nil
// logger falls back to slog.Default().
func New(store tracestore.Store, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{store: store, logger: logger}
}

func (l *Logger) emit(c trace.Context, event string, level slog.Level, msg string, duration *time.Duration, fields map[string]any) {
	entry := tracestore.NewEntry(c, event, fields)
	if duration != nil {
		ms := duration.Milliseconds()
		entry.DurationMs = &ms
	}
	if l.store != nil {
		l.store.Save(entry)
	}

	attrs := []any{
		slog.String("event", event),
		slog.String("trace_id", c.TraceID),
		slog.String("run_id", c.RunID),
	}
	if c.AgentName != "" {
		attrs = append(attrs, slog.String("agent", c.AgentName))
	}
	if duration != nil {
		attrs = append(attrs, slog.Int64("duration_ms", duration.Milliseconds()))
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.Log(nil, level, msg, attrs...)
}

// TraceStart records the creation of a new run.
func (l *Logger) TraceStart(c trace.Context) {
	l.emit(c, tracestore.EventTraceStart, slog.LevelInfo, "trace start", nil, map[string]any{
		"operation": c.Operation,
		"run_type":  string(c.RunType),
	})
}

// TraceEnd records the completion of a run, with its total elapsed time.
func (l *Logger) TraceEnd(c trace.Context, err error) {
	d := c.Elapsed()
	fields := map[string]any{"operation": c.Operation}
	if err != nil {
		fields["error"] = err.Error()
		l.emit(c, tracestore.EventTraceEnd, slog.LevelWarn, "trace end (error)", &d, fields)
		return
	}
	l.emit(c, tracestore.EventTraceEnd, slog.LevelInfo, "trace end", &d, fields)
}

// IterationStart records the start of one tool-calling loop iteration.
func (l *Logger) IterationStart(c trace.Context, iteration int) {
	l.emit(c, tracestore.EventIterationStart, slog.LevelDebug, "iteration start", nil, map[string]any{
		"iteration": iteration,
	})
}

// LLMRequest records an outbound request to a model provider.
func (l *Logger) LLMRequest(c trace.Context, provider, model string, messageCount, toolCount int) {
	l.emit(c, tracestore.EventLLMRequest, slog.LevelDebug, "llm request", nil, map[string]any{
		"provider":      provider,
		"model":         model,
		"message_count": messageCount,
		"tool_count":    toolCount,
	})
}

// LLMResponse records the reply from a model provider.
func (l *Logger) LLMResponse(c trace.Context, d time.Duration, contentPreview string, toolCallCount, tokensUsed int) {
	l.emit(c, tracestore.EventLLMResponse, slog.LevelDebug, "llm response", &d, map[string]any{
		"content_preview": Preview(contentPreview),
		"tool_call_count": toolCallCount,
		"tokens_used":     tokensUsed,
	})
}

// ToolCall records that the model requested a tool invocation.
func (l *Logger) ToolCall(c trace.Context, toolName string, argsPreview string) {
	l.emit(c, tracestore.EventToolCall, slog.LevelInfo, "tool call", nil, map[string]any{
		"tool_name":    toolName,
		"args_preview": Preview(argsPreview),
	})
}

// ToolExecutionStart records the start of one fan-out of tool executions
// (one event per ExecuteAll call, however many tools it runs — not one
// per individual tool).
func (l *Logger) ToolExecutionStart(c trace.Context, toolNames []string) {
	l.emit(c, tracestore.EventToolExecutionStart, slog.LevelDebug, "tool execution start", nil, map[string]any{
		"tool_count": len(toolNames),
		"tool_names": toolNames,
	})
}

// ToolResult records the outcome of a tool invocation.
func (l *Logger) ToolResult(c trace.Context, toolName string, d time.Duration, success bool, resultPreview string) {
	fields := map[string]any{
		"tool_name":      toolName,
		"success":        success,
		"result_preview": Preview(resultPreview),
	}
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	l.emit(c, tracestore.EventToolResult, level, "tool result", &d, fields)
}

// ToolLog records an arbitrary log line emitted by a tool via an injected
// logger (§ InjectedLogger), attributed to the tool's own trace context.
func (l *Logger) ToolLog(c trace.Context, level slog.Level, msg string, fields map[string]any) {
	l.emit(c, tracestore.EventToolLog, level, msg, nil, fields)
}

// Preview returns s unchanged when it is at most previewMaxChars bytes
// long; otherwise it cuts s to previewMaxChars bytes (never more than
// fieldMaxChars) and appends an ellipsis marker.
func Preview(s string) string {
	if len(s) <= previewMaxChars {
		return s
	}
	cut := previewMaxChars
	if cut > fieldMaxChars {
		cut = fieldMaxChars
	}
	return s[:cut] + "...(truncated)"
}
