package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RetryConfig configures retry behavior for model calls.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns sensible defaults for LLM API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryableError determines if an error should trigger a retry.
func retryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()

	// Rate limits and quota exhaustion.
	if containsAny(errStr, "rate limit", "quota exceeded", "429") {
		return true
	}
	// Transient server errors.
	if containsAny(errStr, "500", "502", "503", "504", "unavailable") {
		return true
	}
	// Network flakes.
	if containsAny(errStr, "connection reset", "timeout", "temporary") {
		return true
	}

	return false
}

func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// withRetry runs fn with exponential backoff, rate limiting each attempt.
func (c *Client) withRetry(ctx context.Context, operation string, fn func(context.Context) error) error {
	var lastErr error
	delay := c.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
		}

		err := fn(ctx)
		if err == nil {
			c.logger.Debug("model call succeeded",
				"operation", operation,
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return nil
		}

		lastErr = err
		if !retryableError(err) {
			return err
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		c.logger.Debug("retrying model call",
			"operation", operation,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, c.retry.MaxInterval)
		}
	}

	return fmt.Errorf("%s after %d retries (elapsed: %v): %w",
		operation, c.retry.MaxRetries, time.Since(start), lastErr)
}
