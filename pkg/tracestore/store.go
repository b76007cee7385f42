// Package tracestore defines the pluggable persistence boundary for trace
// entries and ships two implementations: a bounded in-memory store that
// evicts whole traces oldest-first, and an append-only JSON-lines file
// writer with size-based rotation.
package tracestore

import (
	"time"

	"github.com/agentcore/agentrt/pkg/trace"
)

// Event names emitted by pkg/tracelog. Kept here so stores and the logger
// agree on the closed set without an import cycle.
const (
	EventTraceStart        = "trace.start"
	EventTraceEnd           = "trace.end"
	EventToolCall           = "tool.call"
	EventToolResult         = "tool.result"
	EventLLMRequest         = "llm.request"
	EventLLMResponse        = "llm.response"
	EventIterationStart     = "trace.iteration.start"
	EventToolExecutionStart = "tool.execution.start"
	EventToolLog            = "tool.log"
)

// Entry is one structured record persisted for a trace event. It is the
// wire/storage shape of a single occurrence tied to a trace.Context.
type Entry struct {
	TraceID     string         `json:"trace_id"`
	RunID       string         `json:"run_id"`
	ParentRunID string         `json:"parent_run_id,omitempty"`
	RunType     trace.RunType  `json:"run_type"`
	Operation   string         `json:"operation"`
	SessionID   string         `json:"session_id,omitempty"`
	AgentName   string         `json:"agent_name,omitempty"`
	Model       string         `json:"model,omitempty"`
	Event       string         `json:"event"`
	Timestamp   time.Time      `json:"timestamp"`
	DurationMs  *int64         `json:"duration_ms,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
}

// NewEntry builds an Entry from a trace.Context and an event name.
func NewEntry(c trace.Context, event string, fields map[string]any) Entry {
	return Entry{
		TraceID:     c.TraceID,
		RunID:       c.RunID,
		ParentRunID: c.ParentRunID,
		RunType:     c.RunType,
		Operation:   c.Operation,
		SessionID:   c.SessionID,
		AgentName:   c.AgentName,
		Model:       c.Model,
		Event:       event,
		Timestamp:   time.Now().UTC(),
		Fields:      fields,
	}
}

// Summary aggregates the entries belonging to one trace_id, used to render
// a single end-to-end chat run for inspection.
type Summary struct {
	TraceID   string  `json:"trace_id"`
	Entries   []Entry `json:"entries"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

// Store is the persistence boundary every trace sink implements. Save must
// never block the caller indefinitely and must never panic; a store that
// cannot persist an entry should drop it and report through its own
// logging rather than propagate an error into the hot path, mirroring the
// teacher's "tracing never breaks the request" posture.
type Store interface {
	Save(e Entry)
	// Query returns every entry recorded for traceID, in insertion order.
	Query(traceID string) []Entry
	// Close releases any resources (open files, etc.) held by the store.
	Close() error
}
