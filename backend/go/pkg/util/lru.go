package util

import (
	"container/list"
	"errors"
	"sync"
	"time"
)

// CacheConfig 用于配置LRU缓存的行为。
type CacheConfig struct {
	// Capacity 是缓存的最大元素数量，必须大于0。
	Capacity int
	// TTL 是元素自最后一次访问起的存活时间。如果为0，则元素永不过期。
	TTL time.Duration
	// Now 返回当前时间，为 nil 时使用 time.Now。测试中可替换。
	Now func() time.Time
}

// entry 结构体用于存储链表节点中的实际数据。
type entry[K comparable, V any] struct {
	key        K
	value      V
	expiration time.Time
}

// LRUCache 是一个支持泛型、线程安全、带空闲过期的LRU缓存。
type LRUCache[K comparable, V any] struct {
	config CacheConfig
	ll     *list.List
	cache  map[K]*list.Element
	lock   sync.Mutex
}

// NewWithConfig 使用指定的配置创建一个LRU缓存实例。
func NewWithConfig[K comparable, V any](config CacheConfig) (*LRUCache[K, V], error) {
	if config.Capacity <= 0 {
		return nil, errors.New("lru: Capacity 必须大于0")
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &LRUCache[K, V]{
		config: config,
		ll:     list.New(),
		cache:  make(map[K]*list.Element),
	}, nil
}

// Get 方法根据键获取一个值，命中时刷新其位置和过期时间。
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.lookup(key)
	if !ok {
		var zeroV V
		return zeroV, false
	}
	return element.Value.(*entry[K, V]).value, true
}

// Put 方法向缓存中添加或更新一个键值对。
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.cache[key]; ok {
		e := element.Value.(*entry[K, V])
		e.value = value
		c.touch(element)
		return
	}
	c.insert(key, value)
}

// GetOrPut 返回键对应的值；不存在或已过期时调用 create 创建并存入。
// 整个过程持有锁，因此同一个键只会创建一次。
func (c *LRUCache[K, V]) GetOrPut(key K, create func() V) V {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.lookup(key); ok {
		return element.Value.(*entry[K, V]).value
	}
	value := create()
	c.insert(key, value)
	return value
}

// Remove 删除指定的键。
func (c *LRUCache[K, V]) Remove(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.cache[key]; ok {
		c.removeElement(element)
	}
}

// Len 返回当前缓存中的条目数量（可能包含尚未被淘汰的过期条目）。
func (c *LRUCache[K, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.ll.Len()
}

// lookup 查找键并处理被动过期。此方法假设已持有锁。
func (c *LRUCache[K, V]) lookup(key K) (*list.Element, bool) {
	element, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	e := element.Value.(*entry[K, V])
	if c.config.TTL > 0 && c.config.Now().After(e.expiration) {
		c.removeElement(element)
		return nil, false
	}
	c.touch(element)
	return element, true
}

// insert 插入新元素并在超出容量时淘汰最久未使用的元素。此方法假设已持有锁。
func (c *LRUCache[K, V]) insert(key K, value V) {
	e := &entry[K, V]{key: key, value: value}
	if c.config.TTL > 0 {
		e.expiration = c.config.Now().Add(c.config.TTL)
	}
	c.cache[key] = c.ll.PushFront(e)

	for c.ll.Len() > c.config.Capacity {
		if back := c.ll.Back(); back != nil {
			c.removeElement(back)
		}
	}
}

// touch 标记为最近使用并刷新过期时间。此方法假设已持有锁。
func (c *LRUCache[K, V]) touch(element *list.Element) {
	if c.config.TTL > 0 {
		element.Value.(*entry[K, V]).expiration = c.config.Now().Add(c.config.TTL)
	}
	c.ll.MoveToFront(element)
}

// removeElement 从链表和map中移除元素。此方法假设已持有锁。
func (c *LRUCache[K, V]) removeElement(element *list.Element) {
	c.ll.Remove(element)
	delete(c.cache, element.Value.(*entry[K, V]).key)
}
