package ratelimiter

import (
	"sync"
	"time"
)

// TokenBucket implements the RateLimiter interface using the token bucket algorithm.
// It allows for bursts of requests up to the bucket's capacity.
type TokenBucket struct {
	rate          float64 // tokens generated per second
	capacity      float64
	tokens        float64
	lastTokenTime time.Time
	now           func() time.Time
	mutex         sync.Mutex
}

// NewTokenBucket creates a new TokenBucket that starts full.
// rate: the number of tokens to generate per second.
// capacity: the maximum number of tokens (burst size).
func NewTokenBucket(rate float64, capacity int, opts ...Option) *TokenBucket {
	o := buildOptions(opts)
	return &TokenBucket{
		rate:          rate,
		capacity:      float64(capacity),
		tokens:        float64(capacity),
		lastTokenTime: o.now(),
		now:           o.now,
	}
}

// Allow consumes one token if available.
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// RetryAfter returns the time until one whole token is available.
func (tb *TokenBucket) RetryAfter() time.Duration {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1 || tb.rate <= 0 {
		return 0
	}
	return time.Duration((1 - tb.tokens) / tb.rate * float64(time.Second))
}

// refill adds tokens for the time elapsed since the last call.
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastTokenTime)
	if elapsed <= 0 {
		return
	}
	tb.tokens += elapsed.Seconds() * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastTokenTime = now
}
