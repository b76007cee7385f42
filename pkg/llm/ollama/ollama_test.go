package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentcore/agentrt/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteReturnsTextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"hi there"},"done":true,"prompt_eval_count":4,"eval_count":6}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), llm.Request{
		Model:    "llama3.2",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, 10, resp.TokensUsed)
}

func TestCompleteParsesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"","tool_calls":[
			{"function":{"name":"lookup","arguments":{"query":"go"}}}
		]},"done":true}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), llm.Request{
		Model:    "llama3.2",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "search for go"}},
		Tools:    []llm.ToolDefinition{{Name: "lookup"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "lookup", resp.ToolCalls[0].ToolName)
	assert.Equal(t, "go", resp.ToolCalls[0].Arguments["query"])
}

func TestCompleteSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), llm.Request{
		Model:    "does-not-exist",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestBuildWireRequestPassesThinkThrough(t *testing.T) {
	wr := buildWireRequest(llm.Request{Model: "deepseek-r1", Think: "high"}, Config{KeepAlive: "5m"}, false)
	assert.Equal(t, "high", wr.Think)

	wr = buildWireRequest(llm.Request{Model: "llama3.2", Think: "true"}, Config{KeepAlive: "5m"}, false)
	assert.Equal(t, true, wr.Think)
}

func TestStreamEmitsTextThenDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher, _ := w.(http.Flusher)
		lines := []string{
			`{"message":{"role":"assistant","content":"Hel"},"done":false}`,
			`{"message":{"role":"assistant","content":"lo"},"done":false}`,
			`{"message":{"role":"assistant","content":""},"done":true,"prompt_eval_count":3,"eval_count":2}`,
		}
		for _, l := range lines {
			_, _ = w.Write([]byte(l + "\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	events, err := c.Stream(context.Background(), llm.Request{
		Model:    "llama3.2",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	var text string
	var sawDone bool
	for ev := range events {
		switch ev.Kind {
		case llm.StreamText:
			text += ev.Text
		case llm.StreamDone:
			sawDone = true
			assert.Equal(t, 5, ev.TokensUsed)
		case llm.StreamError:
			t.Fatalf("unexpected stream error: %v", ev.Err)
		}
	}
	assert.Equal(t, "Hello", text)
	assert.True(t, sawDone)
}
