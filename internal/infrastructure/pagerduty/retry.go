package pagerduty

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainerrors "github.com/qj0r9j0vc2/mention-bridge/internal/domain/errors"
)

// RetryPolicy defines the configuration for exponential backoff retry logic.
type RetryPolicy struct {
	InitialDelay time.Duration // Initial delay between retries (100ms)
	Multiplier   float64       // Multiplier for exponential backoff (2x)
	MaxDelay     time.Duration // Maximum delay between retries (5s)
	MaxRetries   int           // Maximum number of retry attempts (3)
}

// DefaultRetryPolicy returns a RetryPolicy configured with standard exponential backoff parameters.
// Initial: 100ms, Multiplier: 2x, Max: 5s, Max retries: 3
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		MaxRetries:   3,
	}
}

// WithRetry executes the provided function with exponential backoff retry logic.
// It retries on transient errors (5xx, 429, network errors) and respects context cancellation.
// Returns the result of the last attempt or an error if all retries exhausted.
func (r *RetryPolicy) WithRetry(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		// Execute the operation
		err := operation(ctx)
		if err == nil {
			return nil // Success
		}

		lastErr = err

		// Check if error is retryable
		if !IsRetryable(err) {
			return fmt.Errorf("non-retryable error: %w", err)
		}

		// Check if we've exhausted retries
		if attempt == r.MaxRetries {
			return fmt.Errorf("max retries (%d) exhausted: %w", r.MaxRetries, lastErr)
		}

		// Calculate delay for next attempt
		delay := r.calculateDelay(attempt)

		// Wait with context cancellation support
		select {
		case <-time.After(delay):
			// Continue to next retry attempt
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry backoff: %w", ctx.Err())
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", r.MaxRetries, lastErr)
}

// calculateDelay computes the exponential backoff delay for a given attempt.
// Formula: min(InitialDelay * (Multiplier ^ attempt), MaxDelay)
func (r *RetryPolicy) calculateDelay(attempt int) time.Duration {
	// Calculate exponential delay: InitialDelay * (Multiplier ^ attempt)
	delay := float64(r.InitialDelay)
	for i := 0; i < attempt; i++ {
		delay *= r.Multiplier
	}

	// Cap at MaxDelay
	if time.Duration(delay) > r.MaxDelay {
		return r.MaxDelay
	}

	return time.Duration(delay)
}

// IsRetryable determines if an error should trigger a retry attempt.
// Only transient failures (5xx, 429, network errors) are retried; an expired
// or cancelled context never is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return domainerrors.IsTransientError(err)
}
