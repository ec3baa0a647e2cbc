package resilience

import (
	"context"
	"time"
)

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func NormalizeRetryConfig(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay * 8
	}
	return cfg
}

// Retry runs fn up to cfg.MaxAttempts times, doubling the delay between
// attempts. retryable decides whether an error is worth retrying; errors it
// rejects are returned immediately. The context cancels the backoff sleep.
func Retry(ctx context.Context, cfg RetryConfig, retryable func(error) bool, fn func(ctx context.Context) error) error {
	cfg = NormalizeRetryConfig(cfg)

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay *= 2
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
