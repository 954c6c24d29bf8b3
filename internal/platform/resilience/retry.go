package resilience

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrAttemptsExhausted marks the last error of an operation that failed on every attempt.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Retrier runs an operation until it succeeds, fails terminally, or runs out of attempts.
// Retries are sequential: the calling goroutine sleeps between attempts.
type Retrier struct {
	MaxAttempts int
	// Delay returns the pause after the given 1-based attempt failed with err.
	Delay func(attempt int, err error) time.Duration
	// Retryable reports whether err is transient. Nil treats every error as terminal.
	Retryable func(err error) bool
	// Sleep blocks for d. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// LinearBackoff returns base*attempt.
func LinearBackoff(base time.Duration) func(int, error) time.Duration {
	return func(attempt int, _ error) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return base * time.Duration(attempt)
	}
}

// Do runs op and returns how many attempts were made with the final error, if any.
func (r Retrier) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := r.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if r.Retryable == nil || !r.Retryable(lastErr) {
			return attempt, lastErr
		}
		if attempt == maxAttempts {
			break
		}

		var delay time.Duration
		if r.Delay != nil {
			delay = r.Delay(attempt, lastErr)
		}
		if err := sleep(ctx, delay); err != nil {
			return attempt, errors.Wrap(err, "wait before retry")
		}
	}

	return maxAttempts, errors.Mark(lastErr, ErrAttemptsExhausted)
}

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
