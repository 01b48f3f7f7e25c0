package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiter keeps one token bucket per key in process memory. Limits
// are not shared between instances.
type MemoryLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    int
	every    time.Duration
	idleTTL  time.Duration
	now      func() time.Time
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewMemoryLimiter allows limit requests per window with a burst of limit.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    limit,
		every:    window / time.Duration(max(limit, 1)),
		idleTTL:  2 * window,
		now:      time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	entry, ok := m.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(m.every), m.limit)}
		m.limiters[key] = entry
	}
	entry.lastAccess = now
	m.mu.Unlock()

	res := entry.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return Decision{Allowed: false, Limit: m.limit, RetryAfter: delay}, nil
	}

	return Decision{
		Allowed:   true,
		Limit:     m.limit,
		Remaining: max(int(entry.limiter.TokensAt(now)), 0),
	}, nil
}

// Run evicts idle keys until ctx is done.
func (m *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *MemoryLimiter) evictIdle() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, entry := range m.limiters {
		if now.Sub(entry.lastAccess) > m.idleTTL {
			delete(m.limiters, key)
		}
	}
}
