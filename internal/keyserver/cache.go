package keyserver

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize and DefaultCacheTTL match the control plane's
// package-version cache defaults.
const (
	DefaultCacheSize = 1000
	DefaultCacheTTL  = 180 * time.Second
)

type cacheEntry[V any] struct {
	value  V
	expiry time.Time
}

// Cache is a fixed-capacity, TTL-expiring map guarded by a single
// mutex; Get evicts and reports absent once an entry's TTL has
// elapsed. Insertion and lookup are O(1) amortized.
type Cache[K comparable, V any] struct {
	mu  sync.Mutex
	ttl time.Duration
	lru *lru.Cache[K, cacheEntry[V]]
}

// NewCache builds a Cache with the given TTL and maximum entry count.
func NewCache[K comparable, V any](ttl time.Duration, size int) *Cache[K, V] {
	l, err := lru.New[K, cacheEntry[V]](size)
	if err != nil {
		// size <= 0 is a programming error, not a runtime condition.
		panic(err)
	}
	return &Cache[K, V]{ttl: ttl, lru: l}
}

// Get returns the cached value for key, evicting it first if its TTL
// has elapsed.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(entry.expiry) {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Insert stores value under key, resetting its expiry to now+ttl.
func (c *Cache[K, V]) Insert(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, cacheEntry[V]{value: value, expiry: time.Now().Add(c.ttl)})
}

// Len reports the current entry count, including not-yet-evicted
// expired entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
