package ratelimiter

import (
	"fmt"
	"time"

	"docsearch/backend/go/pkg/util"
)

// Keyed holds one RateLimiter per key, typically per client address. The
// set of tracked keys is bounded: least recently seen keys are forgotten
// first, and keys idle for longer than the TTL start over with a fresh
// limiter.
type Keyed struct {
	limiters *util.LRUCache[string, RateLimiter]
	factory  func() RateLimiter
}

// NewKeyed creates a Keyed limiter. factory builds the limiter for a key
// seen for the first time. idleTTL should be at least the limiter's window.
func NewKeyed(factory func() RateLimiter, maxKeys int, idleTTL time.Duration, opts ...Option) (*Keyed, error) {
	if factory == nil {
		return nil, fmt.Errorf("ratelimiter: nil factory")
	}
	o := buildOptions(opts)
	cache, err := util.NewWithConfig[string, RateLimiter](util.CacheConfig{
		Capacity: maxKeys,
		TTL:      idleTTL,
		Now:      o.now,
	})
	if err != nil {
		return nil, fmt.Errorf("ratelimiter: %w", err)
	}
	return &Keyed{limiters: cache, factory: factory}, nil
}

// Allow records a request for key. When the request is rejected it also
// returns how long the caller should wait.
func (k *Keyed) Allow(key string) (bool, time.Duration) {
	limiter := k.limiters.GetOrPut(key, k.factory)
	if limiter.Allow() {
		return true, 0
	}
	return false, limiter.RetryAfter()
}

// Tracked returns the number of keys currently held.
func (k *Keyed) Tracked() int {
	return k.limiters.Len()
}
