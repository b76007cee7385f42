package agent

import (
	"sync"

	"github.com/agentcore/agentrt/pkg/llm"
)

// History is a bounded FIFO conversation buffer owned by one Agent. On
// append, once the buffer is at max size the oldest message is dropped
// before the new one is pushed; the middle is never dropped.
type History struct {
	mu       sync.Mutex
	messages []llm.Message
	maxSize  int
}

const defaultHistoryMaxSize = 10

// NewHistory builds a History bounded to maxSize messages. maxSize <= 0
// uses the package default.
func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = defaultHistoryMaxSize
	}
	return &History{maxSize: maxSize}
}

// Append adds m, evicting the oldest message first if the buffer is full.
func (h *History) Append(m llm.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) >= h.maxSize {
		h.messages = h.messages[1:]
	}
	h.messages = append(h.messages, m)
}

// AppendAll appends each message in order, applying the same eviction
// rule per message. Used for the orchestrator's transactional append of a
// user message plus an assistant reply.
func (h *History) AppendAll(ms ...llm.Message) {
	for _, m := range ms {
		h.Append(m)
	}
}

// Snapshot returns an immutable copy of the current buffer, oldest first.
func (h *History) Snapshot() []llm.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]llm.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the current number of retained messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Clear drops all retained messages.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}
