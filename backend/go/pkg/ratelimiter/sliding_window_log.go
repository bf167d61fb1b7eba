package ratelimiter

import (
	"container/list"
	"sync"
	"time"
)

// SlidingWindowLog implements the RateLimiter interface using the sliding window log algorithm.
// It keeps a log of request timestamps in a sliding window.
type SlidingWindowLog struct {
	limit  int
	window time.Duration
	log    *list.List // ordered request timestamps, oldest first
	now    func() time.Time
	mutex  sync.Mutex
}

// NewSlidingWindowLog creates a new SlidingWindowLog.
// limit: the maximum number of requests allowed in any window.
// window: the duration of the window.
func NewSlidingWindowLog(limit int, window time.Duration, opts ...Option) *SlidingWindowLog {
	o := buildOptions(opts)
	return &SlidingWindowLog{
		limit:  limit,
		window: window,
		log:    list.New(),
		now:    o.now,
	}
}

// Allow checks if a request is allowed.
func (swl *SlidingWindowLog) Allow() bool {
	swl.mutex.Lock()
	defer swl.mutex.Unlock()

	now := swl.now()
	swl.evict(now)

	if swl.log.Len() < swl.limit {
		swl.log.PushBack(now)
		return true
	}
	return false
}

// RetryAfter returns how long until the oldest logged request leaves the window.
func (swl *SlidingWindowLog) RetryAfter() time.Duration {
	swl.mutex.Lock()
	defer swl.mutex.Unlock()

	now := swl.now()
	swl.evict(now)
	if swl.log.Len() < swl.limit || swl.log.Len() == 0 {
		return 0
	}
	wait := swl.log.Front().Value.(time.Time).Add(swl.window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// evict removes timestamps that fell out of the window.
func (swl *SlidingWindowLog) evict(now time.Time) {
	boundary := now.Add(-swl.window)
	for e := swl.log.Front(); e != nil; {
		if !e.Value.(time.Time).Before(boundary) {
			break
		}
		next := e.Next()
		swl.log.Remove(e)
		e = next
	}
}
