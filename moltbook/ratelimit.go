package moltbook

import (
	"context"
	"sync"
	"time"
)

// DefaultRateLimitInterval is the minimum time between two requests
// against the Moltbook API.
const DefaultRateLimitInterval = 1000 * time.Millisecond

// Limiter enforces a minimum interval between consecutive requests.
// It holds one "time of last request" clock shared by every caller of the
// owning Client. The clock and sleep functions are injectable so the
// limiter can be driven by a fake clock in tests.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error
}

// NewLimiter creates a Limiter with the given minimum interval.
// A non-positive interval disables waiting.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait suspends the caller until the minimum interval since the previous
// request has elapsed, then records the new last-request time. The lock is
// held through the sleep so concurrent callers are serialized against the
// shared clock.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() && l.interval > 0 {
		if wait := l.interval - l.now().Sub(l.last); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	l.last = l.now()
	return nil
}

// sleepContext sleeps for d, returning early with the context error if the
// context is canceled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
