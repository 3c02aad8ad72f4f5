package cache

import (
	"container/list"
	"sync"
)

// Map is a concurrency safe keyed store. A positive capacity bounds it:
// inserting past the limit evicts the least recently used entry.
type Map[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[K]*list.Element
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// NewMap creates an empty map holding at most capacity entries; capacity
// zero or below means unbounded.
func NewMap[K comparable, V any](capacity int) *Map[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &Map[K, V]{capacity: capacity, order: list.New(), index: make(map[K]*list.Element)}
}

// Get retrieves a value by key, with existence check.
func (c *Map[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).value, true
}

// Set stores a value with the given key.
func (c *Map[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value)
}

func (c *Map[K, V]) set(key K, value V) {
	if el, ok := c.index[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}
	c.index[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	if c.capacity > 0 && c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.index, oldest.Value.(*entry[K, V]).key)
	}
}

// GetOrCompute returns the cached value or stores the result of compute.
// Failed computations are not cached.
func (c *Map[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*entry[K, V]).value, nil
	}
	c.set(key, v)
	return v, nil
}

// Size returns the number of items.
func (c *Map[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
