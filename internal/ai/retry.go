package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"importer/internal/logger"
)

// ErrRateLimited marks a 429 from the generative service. It retries like any
// other failure but is logged distinctly.
var ErrRateLimited = errors.New("rate limited by AI service")

// RetryPolicy retries an operation with exponential backoff. Rate-limit
// responses and transient failures share the same attempt ceiling; after
// exhaustion the last error propagates to the caller.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy matches the generative service's observed throttling:
// a multi-second base delay and a small fixed ceiling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 3 * time.Second}
}

// Do executes fn, backing off exponentially between attempts.
func (p RetryPolicy) Do(ctx context.Context, operation string, log *logger.Logger, fn func() error) error {
	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}

		if errors.Is(lastErr, ErrRateLimited) {
			log.Warn("%s rate limited (attempt %d/%d), backing off %v", operation, attempt, p.MaxAttempts, delay)
		} else {
			log.Warn("%s failed (attempt %d/%d): %v, retrying in %v", operation, attempt, p.MaxAttempts, lastErr, delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, p.MaxAttempts, lastErr)
}
