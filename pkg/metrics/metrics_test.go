package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, r *Recorder, name string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.Metric {
			if m.Counter != nil {
				total += m.Counter.GetValue()
			}
		}
	}
	return total
}

func TestRecordChatIncrementsCountersAndHistogram(t *testing.T) {
	r := New("test")
	r.RecordChat("assistant", "openai", "gpt-4o-mini", true, 50*time.Millisecond, 42)

	assert.Equal(t, float64(1), counterValue(t, r, "test_chat_turns_total"))
	assert.Equal(t, float64(42), counterValue(t, r, "test_chat_tokens_total"))
}

func TestRecordChatFailureWithZeroTokensRecordsNoTokens(t *testing.T) {
	r := New("test")
	r.RecordChat("assistant", "openai", "gpt-4o-mini", false, time.Millisecond, 0)

	assert.Equal(t, float64(1), counterValue(t, r, "test_chat_turns_total"))
	assert.Equal(t, float64(0), counterValue(t, r, "test_chat_tokens_total"))
}

func TestRecordToolCallTracksSuccessAndFailure(t *testing.T) {
	r := New("test")
	r.RecordToolCall("add", time.Millisecond, true)
	r.RecordToolCall("add", time.Millisecond, false)
	assert.Equal(t, float64(2), counterValue(t, r, "test_tool_calls_total"))
}

func TestNilRecorderMethodsAreNoops(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordChat("a", "openai", "m", true, time.Millisecond, 1)
		r.RecordToolCall("t", time.Millisecond, true)
		r.RecordProviderRetry("openai")
		_ = r.Handler()
		assert.Nil(t, r.Registry())
	})
}
