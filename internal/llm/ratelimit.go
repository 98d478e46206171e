package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter is a token bucket refilled continuously at requestsPerMinute.
type rateLimiter struct {
	lastRefill time.Time
	now        func() time.Time
	tokens     float64
	capacity   float64
	perToken   time.Duration
	mu         sync.Mutex
}

// newRateLimiter creates a limiter that starts full.
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}

	return &rateLimiter{
		tokens:     float64(requestsPerMinute),
		capacity:   float64(requestsPerMinute),
		perToken:   time.Minute / time.Duration(requestsPerMinute),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		delay := rl.reserve()
		if delay == 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// reserve takes a token and returns 0, or returns how long until one is available.
func (rl *rateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if elapsed := now.Sub(rl.lastRefill); elapsed > 0 {
		rl.tokens += float64(elapsed) / float64(rl.perToken)
		if rl.tokens > rl.capacity {
			rl.tokens = rl.capacity
		}
		rl.lastRefill = now
	}

	if rl.tokens >= 1 {
		rl.tokens--
		return 0
	}

	return time.Duration((1 - rl.tokens) * float64(rl.perToken))
}
