package ai

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryPolicy bounds retries of transient provider failures. Zero values
// fall back to a single attempt with no backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// Retry runs fn up to MaxAttempts times, backing off exponentially with
// jitter between attempts. Non-retryable provider errors and context
// cancellation stop immediately; the last error is returned on exhaustion.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := policy.BaseBackoff << (attempt - 1)
			if backoff > 0 {
				backoff += time.Duration(rand.Int63n(int64(backoff)))
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}

		var provErr *ProviderError
		if errors.As(lastErr, &provErr) && !provErr.Retryable() {
			return lastErr
		}
	}
	return lastErr
}
