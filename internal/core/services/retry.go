package services

import (
	"context"
	"time"

	"github.com/murmurapp/searchcore/internal/logger"
)

// Store round-trips are retried once with backoff before a failure
// surfaces in the indexing state.
const (
	storeRetryAttempts  = 2
	storeRetryBaseDelay = 500 * time.Millisecond
)

// retryWithBackoff retries an operation with exponential backoff.
// The delay doubles on each retry. Returns the error from the last
// attempt if all attempts fail, or the context error if cancelled.
func retryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("Operation succeeded on attempt %d", attempt)
			}
			return nil
		}

		if attempt == maxAttempts {
			break
		}
		logger.Debug("Operation failed (attempt %d/%d), retrying: %v", attempt, maxAttempts, lastErr)

		delay := baseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
