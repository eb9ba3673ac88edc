package utils

import (
	"context"
	"fmt"
	"time"

	"prism-alert-service/internal/logging"
)

// Retry runs fn up to maxAttempts times with exponential backoff, the delay
// doubling after each failed attempt. It respects context cancellation
// between attempts.
func Retry(ctx context.Context, logger *logging.Logger, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			logger.Warnf("Attempt %d/%d failed: %v", attempt, maxAttempts, err)
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return fmt.Errorf("retry aborted: %w", ctx.Err())
				case <-time.After(delay):
				}
				delay *= 2
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}
