// Package ratelimit provides sliding-window request throttles keyed by
// (client identity, operation scope).
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cardpass/gatekeeper/core"
	"github.com/cardpass/gatekeeper/ports"
)

const (
	defaultMaxHits = 30
	defaultWindow  = time.Minute
	maxBuckets     = 5000
)

// MemoryLimiter keeps per-key request timestamps in memory. Pruning happens
// inline on each admission, so no background task is needed; idle buckets are
// dropped once the key count grows past maxBuckets.
type MemoryLimiter struct {
	mu      sync.Mutex
	maxHits int
	window  time.Duration
	hits    map[string][]time.Time
}

// NewMemoryLimiter creates a limiter admitting maxHits requests per window
// per (identity, scope) pair.
func NewMemoryLimiter(maxHits int, window time.Duration) *MemoryLimiter {
	if maxHits <= 0 {
		maxHits = defaultMaxHits
	}
	if window <= 0 {
		window = defaultWindow
	}

	return &MemoryLimiter{
		maxHits: maxHits,
		window:  window,
		hits:    make(map[string][]time.Time),
	}
}

// Admit evicts timestamps older than the window boundary, then admits the
// request if the remaining count is below the ceiling. The evict-count-append
// sequence runs under the lock so concurrent admissions for the same key
// cannot overshoot the ceiling.
func (l *MemoryLimiter) Admit(ctx context.Context, identity, scope string) error {
	key := identity + ":" + scope
	now := time.Now().UTC()
	threshold := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.hits[key]
	kept := recent[:0]
	for _, hit := range recent {
		if hit.After(threshold) {
			kept = append(kept, hit)
		}
	}

	if len(kept) >= l.maxHits {
		l.hits[key] = kept
		return core.ErrTooManyRequests
	}

	l.hits[key] = append(kept, now)

	if len(l.hits) > maxBuckets {
		for k, v := range l.hits {
			if len(v) == 0 || !v[len(v)-1].After(threshold) {
				delete(l.hits, k)
			}
		}
	}

	return nil
}

var _ ports.RateLimiter = (*MemoryLimiter)(nil)
