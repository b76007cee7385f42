package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsWithoutRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultPolicy(), nil, func(attempt int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	err := Do(context.Background(), policy, nil, func(attempt int) error {
		calls++
		if calls < 2 {
			return &APITimeoutError{Provider: "openai", StatusCode: 503, Err: errors.New("boom")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultPolicy(), nil, func(attempt int) error {
		calls++
		return &ProviderError{Provider: "openai", StatusCode: 400, Err: errors.New("bad request")}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	policy := Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	err := Do(context.Background(), policy, nil, func(attempt int) error {
		return &APITimeoutError{Provider: "openai", StatusCode: 500, Err: errors.New("down")}
	})
	require.Error(t, err)
	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 2, exhausted.Attempts)
}

func TestDoHonorsRetryAfterHint(t *testing.T) {
	policy := Policy{MaxAttempts: 2, BaseDelay: time.Second, MaxDelay: time.Minute}
	start := time.Now()
	calls := 0
	err := Do(context.Background(), policy, nil, func(attempt int) error {
		calls++
		if calls == 1 {
			return &RateLimitError{Provider: "openai", StatusCode: 429, After: 5 * time.Millisecond, HasAfter: true}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, DefaultPolicy(), nil, func(attempt int) error {
		t.Fatal("fn should not be called with a canceled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
