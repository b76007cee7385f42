package tracestore

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreEvictsOldestTraceWhenOverCapacity(t *testing.T) {
	s := NewMemoryStore(2)
	s.Save(Entry{TraceID: "t1", Event: "trace.start"})
	s.Save(Entry{TraceID: "t1", Event: "tool.call"})
	s.Save(Entry{TraceID: "t1", Event: "tool.result"})

	// A single trace never evicts itself, however many entries it has.
	got := s.Query("t1")
	require.Len(t, got, 3)
	assert.Equal(t, "trace.start", got[0].Event)
	assert.Equal(t, "tool.result", got[2].Event)

	s.Save(Entry{TraceID: "t2", Event: "trace.start"})
	s.Save(Entry{TraceID: "t3", Event: "trace.start"})

	// t3 pushed the trace count to 3 distinct trace_ids with a capacity of
	// 2, so t1 (the oldest trace) is evicted entirely.
	assert.Empty(t, s.Query("t1"))
	assert.Len(t, s.Query("t2"), 1)
	assert.Len(t, s.Query("t3"), 1)
}

func TestMemoryStoreQueryByTrace(t *testing.T) {
	s := NewMemoryStore(0)
	s.Save(Entry{TraceID: "a", Event: "trace.start"})
	s.Save(Entry{TraceID: "b", Event: "trace.start"})
	s.Save(Entry{TraceID: "a", Event: "trace.end"})

	assert.Len(t, s.Query("a"), 2)
	assert.Len(t, s.Query("b"), 1)
	assert.Len(t, s.Query("missing"), 0)
}

func TestFileStoreWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir, 0, slog.Default())
	require.NoError(t, err)
	defer fs.Close()

	fs.Save(Entry{TraceID: "t1", Event: "trace.start"})
	fs.Save(Entry{TraceID: "t1", Event: "trace.end"})
	require.NoError(t, fs.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "traces_*.jsonl"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"trace.start"`)
	assert.Contains(t, string(data), `"trace.end"`)
}

func TestFileStoreRotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir, 10, slog.Default())
	require.NoError(t, err)
	defer fs.Close()

	for i := 0; i < 5; i++ {
		fs.Save(Entry{TraceID: "t1", Event: "tool.call"})
	}
	require.NoError(t, fs.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "traces_*.jsonl"))
	require.NoError(t, err)
	assert.Greater(t, len(matches), 1)
}
