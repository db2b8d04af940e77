package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig tunes [RetryWithResult].
type RetryConfig struct {
	// Name is a human-readable label used in log messages.
	Name string

	// Attempts is the total number of tries. Default: 3.
	Attempts int

	// Delay is the pause between attempts. Default: 2s.
	Delay time.Duration
}

// RetryWithResult runs fn up to cfg.Attempts times, pausing cfg.Delay between
// tries, and returns the first successful result. Context cancellation aborts
// the wait and returns ctx.Err(). Used at startup where a transient failure
// (a backend still coming up) should not kill the process.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 2 * time.Second
	}

	var (
		zero    T
		lastErr error
	)
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt < cfg.Attempts {
			slog.Warn("attempt failed, retrying",
				"name", cfg.Name, "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(cfg.Delay):
			}
		}
	}
	return zero, fmt.Errorf("%s: all %d attempts failed: %w", cfg.Name, cfg.Attempts, lastErr)
}
