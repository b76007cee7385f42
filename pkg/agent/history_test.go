package agent

import (
	"testing"

	"github.com/agentcore/agentrt/pkg/llm"
	"github.com/stretchr/testify/assert"
)

func msg(content string) llm.Message {
	return llm.Message{Role: llm.RoleUser, Content: content}
}

func TestHistoryAppendEvictsOldestOnceFull(t *testing.T) {
	h := NewHistory(2)
	h.Append(msg("one"))
	h.Append(msg("two"))
	h.Append(msg("three"))

	snap := h.Snapshot()
	require := assert.New(t)
	require.Len(snap, 2)
	require.Equal("two", snap[0].Content)
	require.Equal("three", snap[1].Content)
}

func TestHistoryMaxSizeOneKeepsLatestOnly(t *testing.T) {
	h := NewHistory(1)
	h.Append(msg("a"))
	h.Append(msg("b"))
	assert.Equal(t, []llm.Message{msg("b")}, h.Snapshot())
}

func TestHistoryClearThenAppendYieldsSingleMessage(t *testing.T) {
	h := NewHistory(10)
	h.AppendAll(msg("a"), msg("b"))
	h.Clear()
	h.Append(msg("c"))
	assert.Equal(t, []llm.Message{msg("c")}, h.Snapshot())
}

func TestHistoryNonPositiveMaxSizeUsesDefault(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, defaultHistoryMaxSize, h.maxSize)
}
