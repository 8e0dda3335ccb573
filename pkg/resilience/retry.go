package resilience

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig holds retry behavior for retryable operations
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	MaxRetries      uint64
}

// DefaultRetryConfig returns retry defaults suitable for storage reads
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		MaxElapsedTime:  10 * time.Second,
		MaxRetries:      5,
	}
}

// Retry runs op with exponential backoff until it succeeds, returns a
// permanent error, or the retry budget is exhausted. Only read operations
// should be retried this way; mutations are at-most-once.
func Retry(ctx context.Context, config *RetryConfig, logger *slog.Logger, operation string, op func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = config.InitialInterval
	b.MaxInterval = config.MaxInterval
	b.MaxElapsedTime = config.MaxElapsedTime

	policy := backoff.WithContext(backoff.WithMaxRetries(b, config.MaxRetries), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err != nil && attempt > 1 && logger != nil {
			logger.Debug("Retrying operation",
				"operation", operation,
				"attempt", attempt,
				"error", err.Error(),
			)
		}
		return err
	}, policy)
}

// Permanent marks an error as non-retryable for Retry
func Permanent(err error) error {
	return backoff.Permanent(err)
}
