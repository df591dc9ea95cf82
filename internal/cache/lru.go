// internal/cache/lru.go
//
// Size-bounded LRU for parsed template sets.
//
// The view keys sets by "theme::component::page" and purges everything
// when a component registers new templates.  Safe for concurrent use.
// OnEvict runs under the cache lock, so it must not call back into the
// cache.
package cache

import (
	"container/list"
	"sync"
)

// LRU is a least-recently-used cache of at most Cap entries.
type LRU[K comparable, V any] struct {
	// OnEvict, when set, sees every entry dropped for capacity.  Purge
	// does not call it.
	OnEvict func(K, V)

	mu    sync.Mutex
	cap   int
	order *list.List // front is most recent
	items map[K]*list.Element
}

type entry[K comparable, V any] struct {
	key K
	val V
}

// New returns an empty LRU holding at most capacity entries.  Panics on
// capacity < 1.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU[K, V]{
		cap:   capacity,
		order: list.New(),
		items: make(map[K]*list.Element, capacity),
	}
}

// Get returns the value for key and marks it most recent.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).val, true
}

// Add inserts or replaces key, evicting the oldest entry when full.
func (c *LRU[K, V]) Add(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).val = val
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&entry[K, V]{key, val})
	if c.order.Len() <= c.cap {
		return
	}
	oldest := c.order.Remove(c.order.Back()).(*entry[K, V])
	delete(c.items, oldest.key)
	if c.OnEvict != nil {
		c.OnEvict(oldest.key, oldest.val)
	}
}

// Purge drops every entry.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.items)
}

// Len reports the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
