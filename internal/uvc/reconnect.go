package uvc

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig contains configuration for exponential backoff retries
type RetryConfig struct {
	MaxRetries    int           // Maximum number of retries after the first attempt (default: 6)
	RetryDelay    time.Duration // Initial retry delay (default: 500ms)
	MaxRetryDelay time.Duration // Maximum retry delay cap (default: 8 seconds)
}

// DefaultRetryConfig returns the backoff used while a camera re-enumerates
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    6,
		RetryDelay:    500 * time.Millisecond,
		MaxRetryDelay: 8 * time.Second,
	}
}

// Retry calls fn until it succeeds, backing off exponentially between
// attempts
//
// Used to re-open the camera after commands that make it drop off the bus
// (reboot). Returns the last error once retries are exhausted, or ctx.Err().
func Retry[T any](ctx context.Context, fn func(ctx context.Context) (T, error), cfg RetryConfig) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(attempt, cfg)
			slog.Warn("uvc: retrying",
				"attempt", attempt,
				"max_retries", cfg.MaxRetries,
				"delay", delay,
				"error", lastErr,
			)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}

	return zero, fmt.Errorf("uvc: giving up after %d retries: %w", cfg.MaxRetries, lastErr)
}

// calculateBackoff returns retryDelay * 2^(attempt-1), capped at maxRetryDelay
func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	delay := cfg.RetryDelay * time.Duration(1<<uint(attempt-1))
	if delay > cfg.MaxRetryDelay || delay <= 0 {
		delay = cfg.MaxRetryDelay
	}
	return delay
}
