package toolexec

import (
	"context"
	"log/slog"

	"github.com/agentcore/agentrt/pkg/trace"
	"github.com/agentcore/agentrt/pkg/tracelog"
)

// ambientLogHandler is a slog.Handler that routes every record into the
// trace logger under a fixed trace.Context (tracelog.Logger.ToolLog)
// instead of writing through the usual output chain. It backs the logger
// injected into a tool via tool.InjectedLogger, so a tool's own log lines
// are attributed to the tool's execution span wherever the run's trace is
// queried or replayed.
type ambientLogHandler struct {
	tracer *tracelog.Logger
	ctx    trace.Context
	attrs  []slog.Attr
}

func (h *ambientLogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *ambientLogHandler) Handle(_ context.Context, record slog.Record) error {
	fields := make(map[string]any, len(h.attrs)+record.NumAttrs())
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Any()
	}
	record.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})
	h.tracer.ToolLog(h.ctx, record.Level, record.Message, fields)
	return nil
}

func (h *ambientLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &ambientLogHandler{tracer: h.tracer, ctx: h.ctx, attrs: merged}
}

func (h *ambientLogHandler) WithGroup(string) slog.Handler { return h }

// ambientLogger builds a *slog.Logger bound to c, for injection into a
// tool via tool.AmbientArgs.Logger.
func ambientLogger(tracer *tracelog.Logger, c trace.Context) *slog.Logger {
	return slog.New(&ambientLogHandler{tracer: tracer, ctx: c})
}
