// Package trace implements the runtime's hierarchical trace context: an
// immutable, per-operation identity that is propagated through a call tree
// via context.Context rather than goroutine-local storage.
package trace

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunType distinguishes the kind of operation a Context describes.
type RunType string

const (
	RunChat      RunType = "chat"
	RunIteration RunType = "iteration"
	RunLLMCall   RunType = "llm_call"
	RunTool      RunType = "tool"
)

// Context is an immutable identity attached to one node of the trace tree.
// Values are never mutated after creation; children are created from a
// parent via CreateChild, which copies the fields that should propagate and
// assigns the child its own RunID.
type Context struct {
	TraceID      string
	RunID        string
	ParentRunID  string
	RunType      RunType
	Operation    string
	SessionID    string
	AgentName    string
	Model        string
	Metadata     map[string]any
	StartTime    time.Time
}

type ctxKey struct{}

// CreateRoot starts a new trace tree. A fresh TraceID and RunID are
// generated; ParentRunID is empty.
func CreateRoot(runType RunType, operation, sessionID, agentName, model string, metadata map[string]any) Context {
	return Context{
		TraceID:   uuid.NewString(),
		RunID:     uuid.NewString(),
		RunType:   runType,
		Operation: operation,
		SessionID: sessionID,
		AgentName: agentName,
		Model:     model,
		Metadata:  metadata,
		StartTime: time.Now().UTC(),
	}
}

// CreateChild derives a new Context from the receiver: same TraceID and
// SessionID, a new RunID, and ParentRunID set to the parent's RunID.
// Ambient fields (AgentName, Model) are always inherited; metadata keys
// never change them. Callers that need a different agent/model set it
// explicitly via WithAgent/WithModel after CreateChild.
func (c Context) CreateChild(runType RunType, operation string, metadata map[string]any) Context {
	merged := make(map[string]any, len(c.Metadata)+len(metadata))
	for k, v := range c.Metadata {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}
	return Context{
		TraceID:     c.TraceID,
		RunID:       uuid.NewString(),
		ParentRunID: c.RunID,
		RunType:     runType,
		Operation:   operation,
		SessionID:   c.SessionID,
		AgentName:   c.AgentName,
		Model:       c.Model,
		Metadata:    merged,
		StartTime:   time.Now().UTC(),
	}
}

// WithAgent returns a copy of c with AgentName set.
func (c Context) WithAgent(name string) Context {
	c.AgentName = name
	return c
}

// WithModel returns a copy of c with Model set.
func (c Context) WithModel(model string) Context {
	c.Model = model
	return c
}

// WithAmbient attaches c to ctx so that it can be retrieved later with
// Current. This is the only supported propagation mechanism: no
// goroutine-local state is used, so a Context must be explicitly threaded
// through every call that needs it, including into new goroutines.
func WithAmbient(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// Current returns the Context attached to ctx, if any.
func Current(ctx context.Context) (Context, bool) {
	c, ok := ctx.Value(ctxKey{}).(Context)
	return c, ok
}

// Elapsed returns the duration since the Context was created.
func (c Context) Elapsed() time.Duration {
	return time.Since(c.StartTime)
}
