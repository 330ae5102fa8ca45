package fallback

import (
	"context"
	"time"
)

// Backoff configuration for retries against a single provider.
const (
	defaultBaseBackoff = 500 * time.Millisecond
	defaultMaxBackoff  = 8 * time.Second
	backoffMultiplier  = 2.0
)

// nextBackoff advances the exponential backoff, capped.
func nextBackoff(cur, max time.Duration) time.Duration {
	next := time.Duration(float64(cur) * backoffMultiplier)
	if next > max {
		next = max
	}
	return next
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
