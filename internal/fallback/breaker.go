package fallback

import (
	"sync"
	"time"
)

const (
	// DefaultBreakerThreshold is the consecutive-failure count that opens a
	// provider's circuit.
	DefaultBreakerThreshold = 5

	// DefaultBreakerCooldown is how long an open circuit excludes the
	// provider before a probe call is allowed through.
	DefaultBreakerCooldown = 30 * time.Second
)

// Breaker tracks consecutive failures for one provider across the whole
// run. Once the threshold is crossed the provider is skipped until the
// cooldown elapses; the first call after cooldown acts as a probe, and its
// outcome closes or reopens the circuit. Shared by all workers.
type Breaker struct {
	mu          sync.Mutex
	threshold   int
	cooldown    time.Duration
	consecutive int
	open        bool
	openedAt    time.Time
	clock       func() time.Time
}

// NewBreaker creates a breaker. Non-positive threshold or cooldown get the
// defaults.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return newBreakerWithClock(threshold, cooldown, time.Now)
}

func newBreakerWithClock(threshold int, cooldown time.Duration, clock func() time.Time) *Breaker {
	if threshold <= 0 {
		threshold = DefaultBreakerThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultBreakerCooldown
	}
	return &Breaker{threshold: threshold, cooldown: cooldown, clock: clock}
}

// Allow reports whether the provider may be tried. An open circuit admits
// one probe once the cooldown has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	if b.clock().Sub(b.openedAt) >= b.cooldown {
		// Probe window: push the reopen marker forward so concurrent
		// workers don't all probe at once.
		b.openedAt = b.clock()
		return true
	}
	return false
}

// Success closes the circuit and resets the failure streak.
func (b *Breaker) Success() {
	b.mu.Lock()
	b.consecutive = 0
	b.open = false
	b.mu.Unlock()
}

// Failure records one failed chain position for the provider, opening the
// circuit when the streak reaches the threshold.
func (b *Breaker) Failure() {
	b.mu.Lock()
	b.consecutive++
	if b.consecutive >= b.threshold {
		b.open = true
		b.openedAt = b.clock()
	}
	b.mu.Unlock()
}
