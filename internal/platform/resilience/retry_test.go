package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	transient := errors.New("transient")

	attempts := 0
	err := Retry(context.Background(), RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	}, func(err error) bool { return errors.Is(err, transient) }, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return transient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")

	attempts := 0
	err := Retry(context.Background(), RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
	}, func(error) bool { return false }, func(context.Context) error {
		attempts++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	transient := errors.New("transient")

	attempts := 0
	err := Retry(context.Background(), RetryConfig{
		MaxAttempts:  4,
		InitialDelay: time.Millisecond,
	}, func(error) bool { return true }, func(context.Context) error {
		attempts++
		return transient
	})
	if !errors.Is(err, transient) {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 4 {
		t.Fatalf("expected 4 attempts, got %d", attempts)
	}
}

func TestRetryHonorsContextDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Retry(ctx, RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Minute,
	}, func(error) bool { return true }, func(context.Context) error {
		attempts++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected the backoff to abort after one attempt, got %d", attempts)
	}
}
