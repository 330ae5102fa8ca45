// Package ratelimit provides per-provider call budgets shared across all
// pipeline workers. Each provider gets a token bucket refilled at its
// configured calls-per-minute rate; Wait blocks until a call slot is
// available or the context is cancelled.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter hands out call slots per provider. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	clock   func() time.Time
}

type bucket struct {
	capacity float64
	level    float64
	rate     float64 // tokens per second
	last     time.Time
}

// New creates a limiter from a provider→calls-per-minute map. A zero or
// missing rate means the provider is unlimited.
func New(rpm map[string]int) *Limiter {
	return newWithClock(rpm, time.Now)
}

func newWithClock(rpm map[string]int, clock func() time.Time) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket, len(rpm)),
		clock:   clock,
	}
	now := clock()
	for name, perMinute := range rpm {
		if perMinute <= 0 {
			continue
		}
		l.buckets[name] = &bucket{
			capacity: float64(perMinute),
			level:    float64(perMinute),
			rate:     float64(perMinute) / 60.0,
			last:     now,
		}
	}
	return l
}

// Wait blocks until one call slot is available for the provider, or until
// ctx is done. Unlimited providers return immediately.
func (l *Limiter) Wait(ctx context.Context, providerName string) error {
	const minSleep = 10 * time.Millisecond
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait, ok := l.take(providerName)
		if ok {
			return nil
		}
		if wait < minSleep {
			wait = minSleep
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Allow reports whether a call slot is available right now, consuming it
// when so.
func (l *Limiter) Allow(providerName string) bool {
	_, ok := l.take(providerName)
	return ok
}

// take consumes one slot when available; otherwise it returns the duration
// until one accrues.
func (l *Limiter) take(providerName string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, found := l.buckets[providerName]
	if !found {
		return 0, true
	}
	now := l.clock()
	b.refill(now)
	if b.level >= 1 {
		b.level--
		return 0, true
	}
	deficit := 1 - b.level
	return time.Duration(deficit / b.rate * float64(time.Second)), false
}

func (b *bucket) refill(now time.Time) {
	if now.Before(b.last) {
		// Clock went backwards; treat as no elapsed time.
		return
	}
	b.level += now.Sub(b.last).Seconds() * b.rate
	if b.level > b.capacity {
		b.level = b.capacity
	}
	b.last = now
}
