// Package retry provides exponential backoff for transport calls. The
// workspace core never retries; the fetch layer uses this below the
// collaborator boundary.
package retry

import (
	"context"
	"math/rand"
	"time"

	werrors "github.com/tetherlab/workbench/internal/errors"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

// DefaultConfig returns sensible retry defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Jitter:      true,
	}
}

// backoff returns the delay before the given zero-based retry attempt,
// doubling each round and capped at MaxDelay.
func (c Config) backoff(attempt int) time.Duration {
	delay := c.BaseDelay << attempt
	if delay > c.MaxDelay || delay < 0 {
		delay = c.MaxDelay
	}
	if c.Jitter {
		delay = delay/2 + time.Duration(rand.Int63n(int64(delay/2)+1))
	}
	return delay
}

// Do executes fn, retrying retryable errors up to MaxAttempts times.
// Non-retryable errors and context cancellation return immediately.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(cfg.backoff(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !werrors.IsRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
