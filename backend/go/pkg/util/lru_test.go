package util

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestNewWithConfig_RequiresCapacity(t *testing.T) {
	_, err := NewWithConfig[string, int](CacheConfig{})
	assert.Error(t, err)
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewWithConfig[string, int](CacheConfig{Capacity: 2})
	require.NoError(t, err)

	c.Put("a", 1)
	c.Put("b", 2)
	_, _ = c.Get("a")
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_TTLExpiresIdleEntries(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c, err := NewWithConfig[string, int](CacheConfig{Capacity: 10, TTL: time.Minute, Now: clock.Now})
	require.NoError(t, err)

	c.Put("a", 1)
	clock.Advance(30 * time.Second)
	_, ok := c.Get("a")
	require.True(t, ok, "access refreshes the expiry")

	clock.Advance(59 * time.Second)
	_, ok = c.Get("a")
	require.True(t, ok)

	clock.Advance(61 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestLRU_GetOrPutCreatesOnce(t *testing.T) {
	c, err := NewWithConfig[string, *int](CacheConfig{Capacity: 4})
	require.NoError(t, err)

	calls := 0
	create := func() *int {
		calls++
		v := calls
		return &v
	}

	var wg sync.WaitGroup
	results := make([]*int, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.GetOrPut("client", create)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestLRU_Remove(t *testing.T) {
	c, err := NewWithConfig[string, int](CacheConfig{Capacity: 2})
	require.NoError(t, err)

	c.Put("a", 1)
	c.Remove("a")
	c.Remove("missing")
	_, ok := c.Get("a")
	assert.False(t, ok)
}
