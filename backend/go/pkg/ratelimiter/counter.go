package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowCounter implements the RateLimiter interface using a fixed window counter algorithm.
// It allows a certain number of requests in a fixed time window.
type FixedWindowCounter struct {
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time
	now         func() time.Time
	mutex       sync.Mutex
}

// NewFixedWindowCounter creates a new FixedWindowCounter.
func NewFixedWindowCounter(limit int, window time.Duration, opts ...Option) *FixedWindowCounter {
	o := buildOptions(opts)
	return &FixedWindowCounter{
		limit:       limit,
		window:      window,
		windowStart: o.now(),
		now:         o.now,
	}
}

// Allow checks if a request is allowed, starting a new window once the
// current one has passed.
func (fwc *FixedWindowCounter) Allow() bool {
	fwc.mutex.Lock()
	defer fwc.mutex.Unlock()

	fwc.roll(fwc.now())
	if fwc.count < fwc.limit {
		fwc.count++
		return true
	}
	return false
}

// RetryAfter returns the time left in the current window when it is full.
func (fwc *FixedWindowCounter) RetryAfter() time.Duration {
	fwc.mutex.Lock()
	defer fwc.mutex.Unlock()

	now := fwc.now()
	fwc.roll(now)
	if fwc.count < fwc.limit {
		return 0
	}
	return fwc.windowStart.Add(fwc.window).Sub(now)
}

func (fwc *FixedWindowCounter) roll(now time.Time) {
	if now.After(fwc.windowStart.Add(fwc.window)) {
		fwc.windowStart = now
		fwc.count = 0
	}
}
