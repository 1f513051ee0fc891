// Package cache is a small LRU with per-entry TTL, used to memoize
// remote lookups that are expensive but slow-moving, like payee
// suggestions.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// LRU evicts the least recently used entry once maxSize is reached.
// Expired entries are dropped lazily on read.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List
}

func NewLRU[T any](maxSize int, ttl time.Duration) *LRU[T] {
	return &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *LRU[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[T])
		e.value = value
		e.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}
	for c.maxSize > 0 && c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
	elem := c.order.PushFront(&entry[T]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)})
	c.items[key] = elem
}

func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRU[T]) remove(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*entry[T]).key)
}
