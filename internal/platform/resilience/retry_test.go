package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
)

var errFlaky = errors.New("flaky")
var errFatal = errors.New("fatal")

type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func TestRetrier_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	r := Retrier{
		MaxAttempts: 4,
		Delay:       LinearBackoff(2 * time.Second),
		Retryable:   func(err error) bool { return errors.Is(err, errFlaky) },
		Sleep:       sleeper.Sleep,
	}

	attempts, err := r.Do(context.Background(), func(_ context.Context, attempt int) error {
		if attempt < 3 {
			return errFlaky
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts=%d, want 3", attempts)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(sleeper.delays) != len(want) {
		t.Fatalf("delays=%v, want %v", sleeper.delays, want)
	}
	for i := range want {
		if sleeper.delays[i] != want[i] {
			t.Fatalf("delay[%d]=%s, want %s", i, sleeper.delays[i], want[i])
		}
	}
}

func TestRetrier_TerminalErrorStopsImmediately(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	r := Retrier{
		MaxAttempts: 5,
		Retryable:   func(err error) bool { return errors.Is(err, errFlaky) },
		Sleep:       sleeper.Sleep,
	}

	attempts, err := r.Do(context.Background(), func(context.Context, int) error { return errFatal })
	if !errors.Is(err, errFatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("terminal error must not be marked exhausted")
	}
	if attempts != 1 || len(sleeper.delays) != 0 {
		t.Fatalf("attempts=%d delays=%v", attempts, sleeper.delays)
	}
}

func TestRetrier_ExhaustedMarksLastError(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	r := Retrier{
		MaxAttempts: 3,
		Delay:       LinearBackoff(time.Second),
		Retryable:   func(error) bool { return true },
		Sleep:       sleeper.Sleep,
	}

	calls := 0
	attempts, err := r.Do(context.Background(), func(context.Context, int) error {
		calls++
		return errFlaky
	})
	if !errors.Is(err, ErrAttemptsExhausted) || !errors.Is(err, errFlaky) {
		t.Fatalf("expected exhausted flaky error, got %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Fatalf("attempts=%d calls=%d, want 3", attempts, calls)
	}
	if len(sleeper.delays) != 2 {
		t.Fatalf("expected sleeps only between attempts, got %v", sleeper.delays)
	}
}

func TestRetrier_StopsWhenSleepFails(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := Retrier{MaxAttempts: 3, Retryable: func(error) bool { return true }}
	attempts, err := r.Do(ctx, func(context.Context, int) error { return errFlaky })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts=%d, want 1", attempts)
	}
}
