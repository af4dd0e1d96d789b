package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a per-key token bucket refilling requests tokens every
// window. Buckets idle for a full window are dropped, at most once per
// window, while serving Allow.
type MemoryLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	requests    int
	window      time.Duration
	every       rate.Limit
	lastCompact time.Time
	now         func() time.Time
}

func NewMemoryLimiter(requests int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		buckets:  make(map[string]*bucket),
		requests: requests,
		window:   window,
		every:    rate.Every(window / time.Duration(requests)),
		now:      time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastCompact) >= m.window {
		m.compactLocked(now)
	}

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(m.every, m.requests)}
		m.buckets[key] = b
	}
	b.lastSeen = now

	decision := Decision{Limit: m.requests}
	if b.limiter.AllowN(now, 1) {
		decision.Allowed = true
		decision.Remaining = int(b.limiter.TokensAt(now))
		return decision, nil
	}

	r := b.limiter.ReserveN(now, 1)
	decision.RetryAfter = r.DelayFrom(now)
	r.CancelAt(now)
	return decision, nil
}

// Compact forgets buckets that have been idle for at least one window.
func (m *MemoryLimiter) Compact() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.compactLocked(now)
}

func (m *MemoryLimiter) compactLocked(now time.Time) {
	for key, b := range m.buckets {
		if now.Sub(b.lastSeen) >= m.window {
			delete(m.buckets, key)
		}
	}
	m.lastCompact = now
}

func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}
