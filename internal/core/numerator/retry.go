package numerator

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/pkg/logger"
)

// DefaultAttempts bounds how often a numbered insert is retried.
const DefaultAttempts = 5

// retryBackoff is the base delay between attempts; attempt n waits n*retryBackoff.
var retryBackoff = 20 * time.Millisecond

// WithRetry calls fn until it succeeds, fails with anything other than a
// duplicate-entry error, or attempts run out. Each attempt should draw a fresh
// number, so a collision with a row numbered outside the counter is skipped.
func WithRetry(ctx context.Context, attempts int, fn func(ctx context.Context, attempt int) error) error {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx, attempt)
		if err == nil || !apperror.IsDuplicate(err) {
			return err
		}

		logger.Warn(ctx, "numbered insert collided, retrying", "attempt", attempt, "max_attempts", attempts)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}
