// Package ratelimit bounds the rate of outbound network probes per
// destination mail domain, to avoid tripping anti-abuse defenses on the
// servers being probed. It is in-process only; distributed limiting
// across processes is deliberately out of scope.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const window = time.Second

// Limiter admits at most requestsPerSecond probes per domain within any
// trailing one-second window. Acquire suspends the caller just long
// enough for the oldest in-window request to age out.
type Limiter struct {
	requestsPerSecond int

	mu       sync.Mutex
	requests map[string][]time.Time

	// now and sleep are swapped out in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Limiter. rps <= 0 defaults to 10.
func New(rps int) *Limiter {
	if rps <= 0 {
		rps = 10
	}
	return &Limiter{
		requestsPerSecond: rps,
		requests:          make(map[string][]time.Time),
		now:               time.Now,
		sleep:             sleepCtx,
	}
}

// Acquire blocks until one more probe to domain is admissible, then
// records the probe instant. Returns the context error if canceled
// while waiting. Windows are pruned on every call, so per-domain state
// never grows past one second of history.
func (l *Limiter) Acquire(ctx context.Context, domain string) error {
	for {
		l.mu.Lock()
		now := l.now()
		pruned := pruneOlder(l.requests[domain], now.Add(-window))
		l.requests[domain] = pruned

		if len(pruned) < l.requestsPerSecond {
			l.requests[domain] = append(pruned, now)
			l.mu.Unlock()
			return nil
		}

		// Wait exactly until the oldest surviving instant leaves the window.
		wait := window - now.Sub(pruned[0])
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InFlight returns the number of in-window requests recorded for domain.
func (l *Limiter) InFlight(domain string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(pruneOlder(l.requests[domain], l.now().Add(-window)))
}

func pruneOlder(instants []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(instants) && !instants[i].After(cutoff) {
		i++
	}
	return instants[i:]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
