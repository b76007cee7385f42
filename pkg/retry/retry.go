// Package retry implements the resilience layer's bounded-attempt
// exponential backoff driver, grounded on the teacher's
// pkg/httpclient retry/backoff logic but generalized to wrap any
// operation, not just an HTTP round trip.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"
)

// Classifier is satisfied by errors the driver knows how to react to. An
// error that does not implement it is treated as non-retryable.
type Classifier interface {
	error
	Temporary() bool
}

// RetryAfterHint is implemented by errors that carry a server-provided
// delay (e.g. an HTTP Retry-After header).
type RetryAfterHint interface {
	RetryAfter() (time.Duration, bool)
}

// Policy configures the backoff schedule.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// JitterFraction is the proportional random jitter added to each
	// computed delay, e.g. 0.1 for +/-10%.
	JitterFraction float64
}

// DefaultPolicy mirrors the teacher's httpclient.New defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    5,
		BaseDelay:      2 * time.Second,
		MaxDelay:       60 * time.Second,
		JitterFraction: 0.1,
	}
}

// ExhaustedError is returned when every attempt failed; it wraps the last
// observed error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return "retry: exhausted after " + itoa(e.Attempts) + " attempts: " + e.Last.Error()
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Do runs fn, retrying according to policy when fn's error is a
// Classifier reporting Temporary() == true. Attempts stop early if ctx is
// canceled. Returns nil on success, ctx.Err() on cancellation, or an
// *ExhaustedError once MaxAttempts is reached.
func Do(ctx context.Context, policy Policy, logger *slog.Logger, fn func(attempt int) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		var cls Classifier
		if !errors.As(lastErr, &cls) || !cls.Temporary() {
			return lastErr
		}
		if attempt == policy.MaxAttempts-1 {
			break
		}

		delay := computeDelay(policy, attempt, lastErr)
		logger.Warn("retry: transient error, backing off",
			"attempt", attempt+1,
			"max_attempts", policy.MaxAttempts,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return &ExhaustedError{Attempts: policy.MaxAttempts, Last: lastErr}
}

func computeDelay(policy Policy, attempt int, err error) time.Duration {
	var hinted RetryAfterHint
	if errors.As(err, &hinted) {
		if d, ok := hinted.RetryAfter(); ok && d > 0 {
			return capDelay(d, policy.MaxDelay)
		}
	}

	base := policy.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	delay := base << uint(attempt)
	delay = capDelay(delay, policy.MaxDelay)

	if policy.JitterFraction > 0 {
		jitter := float64(delay) * policy.JitterFraction * (rand.Float64()*2 - 1)
		delay += time.Duration(jitter)
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

func capDelay(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}
