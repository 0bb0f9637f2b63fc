/*
Package retry provides a bounded-retry wrapper shared by every network call
site. One bad attempt never aborts the caller; the last error is returned
once all attempts are used up.
*/
package retry

import (
	"context"
	"fmt"
	"time"
)

// Do runs op up to attempts times, sleeping delay between failed attempts.
// It returns nil on the first success, the last error once attempts are
// exhausted, and the context error if ctx is cancelled while waiting.
func Do(ctx context.Context, attempts int, delay time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = op(); lastErr == nil {
			return nil
		}

		if i < attempts-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}
