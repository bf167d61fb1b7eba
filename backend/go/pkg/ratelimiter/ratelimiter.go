package ratelimiter

import "time"

// RateLimiter is the interface for rate limiting.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	// An allowed request is recorded against the limit.
	Allow() bool
	// RetryAfter reports how long a caller should wait before the next
	// request could be allowed. It is zero when a request would pass now.
	RetryAfter() time.Duration
}

// Option configures a limiter.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
