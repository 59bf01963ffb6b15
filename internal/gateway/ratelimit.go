package gateway

import (
	"context"
	"sync"
	"time"
)

// RateLimiter bounds outbound provider calls with a sliding window per key.
// State is process-local and advisory: it protects against self-inflicted
// throttling, it is not a compliance control.
type RateLimiter struct {
	mu         sync.Mutex
	ceiling    int
	window     time.Duration
	admissions map[string][]time.Time

	now func() time.Time
}

func NewRateLimiter(ceiling int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		ceiling:    ceiling,
		window:     window,
		admissions: make(map[string][]time.Time),
		now:        time.Now,
	}
}

// TryAdmit records an admission for key if the window has room.
func (l *RateLimiter) TryAdmit(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	kept := l.prune(key, now)
	if len(kept) >= l.ceiling {
		return false
	}
	l.admissions[key] = append(kept, now)
	return true
}

// AwaitSlot blocks until the window admits the call or ctx is done.
func (l *RateLimiter) AwaitSlot(ctx context.Context, key string) error {
	for {
		if l.TryAdmit(key) {
			return nil
		}

		wait := l.nextSlotIn(key)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// nextSlotIn estimates how long until the oldest admission leaves the window.
func (l *RateLimiter) nextSlotIn(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.admissions[key]
	if len(entries) == 0 {
		return time.Millisecond
	}
	wait := entries[0].Add(l.window).Sub(l.now())
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait
}

// prune drops entries older than the window. Caller holds l.mu.
func (l *RateLimiter) prune(key string, now time.Time) []time.Time {
	entries := l.admissions[key]
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(entries) && !entries[i].After(cutoff) {
		i++
	}
	kept := entries[i:]
	l.admissions[key] = kept
	return kept
}
