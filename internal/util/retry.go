// ABOUTME: Retry with exponential backoff for Charm cloud sync
// ABOUTME: Session operations never retry; only explicit sync requests do
package util

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// MaxBackoff caps a single wait between attempts
const MaxBackoff = 30 * time.Second

// CalculateBackoff returns exponential backoff with jitter.
// Base delay is doubled each attempt, with random jitter of up to ±25%.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > MaxBackoff || backoff <= 0 {
		backoff = MaxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(backoff)/2+1)) - backoff/4
	return backoff + jitter
}

// Retry calls fn up to attempts times, sleeping with backoff between failures.
// It stops early when ctx is done and returns the last error.
func Retry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
			case <-time.After(CalculateBackoff(baseDelay, attempt)):
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}
