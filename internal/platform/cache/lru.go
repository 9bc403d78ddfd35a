// Package cache provides a small thread-safe LRU used for resolver
// results and per-actor lock tables.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	key       string
	value     V
	prev      *entry[V]
	next      *entry[V]
	expiresAt time.Time
}

// LRU is a thread-safe least-recently-used cache with O(1) Get, Add,
// and eviction. A doubly-linked list keeps usage order and a map keeps
// lookups constant time.
//
// A zero ttl disables expiry. An optional guard set with SetEvictGuard
// can veto eviction of individual values; guarded entries are skipped
// and the next oldest is evicted instead
type LRU[V any] struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	items    map[string]*entry[V]

	// head.next is most recently used, tail.prev is least recently used
	head *entry[V]
	tail *entry[V]

	canEvict func(V) bool
}

// NewLRU creates an LRU holding at most capacity entries. Entries
// expire ttl after insertion; ttl <= 0 means they never expire
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 1000
	}
	c := &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*entry[V], capacity),
		head:     &entry[V]{},
		tail:     &entry[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// SetEvictGuard installs a predicate consulted before evicting an
// entry. Entries for which it returns false are kept even over
// capacity. Must be called before the cache is shared
func (c *LRU[V]) SetEvictGuard(canEvict func(V) bool) {
	c.canEvict = canEvict
}

// Get retrieves an entry and marks it most recently used
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if c.expired(e) {
		c.remove(e)
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

// Add inserts or refreshes an entry, evicting the least recently used
// unguarded entry when over capacity
func (c *LRU[V]) Add(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(key, value)
}

// GetOrAdd returns the existing entry for key, or stores the value
// produced by mk and returns that. mk runs under the cache lock and
// must be cheap
func (c *LRU[V]) GetOrAdd(key string, mk func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok && !c.expired(e) {
		c.moveToFront(e)
		return e.value
	}
	v := mk()
	c.add(key, v)
	return v
}

// Remove deletes an entry and reports whether it was present
func (c *LRU[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}
	c.remove(e)
	return true
}

// Len returns the current number of entries
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[V]) expired(e *entry[V]) bool {
	return c.ttl > 0 && time.Now().After(e.expiresAt)
}

func (c *LRU[V]) add(key string, value V) {
	if e, ok := c.items[key]; ok {
		e.value = value
		if c.ttl > 0 {
			e.expiresAt = time.Now().Add(c.ttl)
		}
		c.moveToFront(e)
		return
	}
	e := &entry[V]{key: key, value: value}
	if c.ttl > 0 {
		e.expiresAt = time.Now().Add(c.ttl)
	}
	c.addToFront(e)
	c.items[key] = e

	for len(c.items) > c.capacity {
		if !c.evictOldest() {
			break
		}
	}
}

func (c *LRU[V]) addToFront(e *entry[V]) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *LRU[V]) moveToFront(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.addToFront(e)
}

func (c *LRU[V]) remove(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(c.items, e.key)
}

// evictOldest removes the least recently used entry the guard allows.
// It reports whether anything was evicted
func (c *LRU[V]) evictOldest() bool {
	for e := c.tail.prev; e != c.head; e = e.prev {
		if c.canEvict != nil && !c.canEvict(e.value) {
			continue
		}
		c.remove(e)
		return true
	}
	return false
}
