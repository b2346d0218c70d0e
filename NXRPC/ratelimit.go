package NXRPC

import (
	"context"
	"sync"
	"time"
)

// RateLimiter throttles outbound requests so they stay under the
// configured per-minute quota. The poll loop and the status API share
// one client, so concurrent callers are serialized at the interval.
type RateLimiter struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewRateLimiter with requestsPerMinute <= 0 never waits.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return &RateLimiter{}
	}
	return &RateLimiter{interval: time.Minute / time.Duration(requestsPerMinute)}
}

func (r *RateLimiter) Wait(ctx context.Context) {
	if r.interval == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if wait := r.interval - time.Since(r.last); wait > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
	}
	r.last = time.Now()
}
