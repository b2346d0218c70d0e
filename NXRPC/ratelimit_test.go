package NXRPC

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPacesCalls(t *testing.T) {
	// 6000 rpm = one request every 10ms
	limiter := NewRateLimiter(6000)
	ctx := context.Background()

	start := time.Now()
	limiter.Wait(ctx)
	limiter.Wait(ctx)
	limiter.Wait(ctx)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestRateLimiterUnpaced(t *testing.T) {
	limiter := NewRateLimiter(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		limiter.Wait(ctx)
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiterConcurrentCallers(t *testing.T) {
	// the poll loop and the health handler share one client
	limiter := NewRateLimiter(6000)
	ctx := context.Background()

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter.Wait(ctx)
			limiter.Wait(ctx)
		}()
	}
	wg.Wait()

	// eight serialized calls at one per 10ms, the first is free
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestRateLimiterCancelledContext(t *testing.T) {
	limiter := NewRateLimiter(1) // one request a minute
	ctx, cancel := context.WithCancel(context.Background())

	limiter.Wait(ctx)
	cancel()

	start := time.Now()
	limiter.Wait(ctx)
	assert.Less(t, time.Since(start), time.Second)
}
