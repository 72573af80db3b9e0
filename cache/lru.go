package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCache is the Cache implementation a Manager is normally built with: a
// fixed-capacity least-recently-used cache of Objects, releasing an entry's
// reference whenever capacity eviction drops it, grounded on the original's
// LruCache wrapping the `lru` crate.
type LRUCache[K comparable, V any] struct {
	mu  sync.Mutex
	lru *lru.Cache[K, Object[V]]
}

// NewLRUCache builds an LRUCache holding at most capacity entries.
func NewLRUCache[K comparable, V any](capacity int) *LRUCache[K, V] {
	c, err := lru.NewWithEvict[K, Object[V]](capacity, func(_ K, obj Object[V]) {
		obj.Release()
	})
	if err != nil {
		// Only returned for a non-positive capacity, a programmer error.
		panic(err)
	}
	return &LRUCache[K, V]{lru: c}
}

func (c *LRUCache[K, V]) Get(key K) (Object[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(key)
}

func (c *LRUCache[K, V]) Set(key K, value Object[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, value)
}

// Remove evicts key, which runs the constructor's OnEvicted callback
// (releasing the cache's reference) before returning.
func (c *LRUCache[K, V]) Remove(key K) (Object[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.lru.Peek(key)
	if !ok {
		var zero Object[V]
		return zero, false
	}
	c.lru.Remove(key)
	return obj, true
}
