package backoff

import (
	"context"
	"time"
)

// Retry runs f up to attempts times, doubling the wait between attempts.
// shouldRetry gates which errors earn another attempt; when it returns false
// Retry stops immediately with that error. The wait between attempts honors
// context cancellation and returns the last error when the context ends.
func Retry(ctx context.Context, attempts int, sleep time.Duration, f func() error, shouldRetry func(error) bool) error {
	if attempts < 1 {
		attempts = 1
	}
	if sleep <= 0 {
		sleep = time.Second
	}
	var lastErr error
	for cur := 0; cur < attempts; cur++ {
		err := f()
		if err == nil {
			return nil
		}
		lastErr = err
		if !shouldRetry(err) {
			return err
		}
		if cur != attempts-1 {
			timer := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				return lastErr
			case <-timer.C:
			}
			sleep *= 2
		}
	}
	return lastErr
}
