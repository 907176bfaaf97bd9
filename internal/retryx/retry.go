// Package retryx wraps sethvargo/go-retry with the bounded, linear-backoff
// policy used by the queue replay handlers: the delay before attempt n is
// the base delay multiplied by n, and the number of attempts is fixed.
package retryx

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Linear returns a backoff that grows by base on every attempt
// (base, 2*base, 3*base, ...).
func Linear(base time.Duration) retry.Backoff {
	var attempt int64
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * base, false
	})
}

// Do runs fn up to attempts times, sleeping per Linear(base) between
// attempts. Every error from fn is treated as retryable; the last error is
// returned once attempts are exhausted. Context cancellation stops early.
func Do(ctx context.Context, attempts int, base time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	b := retry.WithMaxRetries(uint64(attempts-1), Linear(base))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
