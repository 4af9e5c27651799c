package cache

import (
	"container/list"
	"sync"

	"github.com/pantryops/restock/internal/model"
)

// lruEntry is the payload stored in the recency list.
type lruEntry struct {
	key    string
	result model.Normalization
}

// lruCache is a bounded most-recently-used cache with O(1) get and set.
// Eviction happens on insert over capacity, not via background cleanup.
type lruCache struct {
	items    map[string]*list.Element
	order    *list.List
	capacity int
	mu       sync.Mutex
}

func newLRU(capacity int) *lruCache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &lruCache{
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
	}
}

// get returns the cached normalization and marks the key most recently used.
func (c *lruCache) get(key string) (model.Normalization, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return model.Normalization{}, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*lruEntry).result, true
}

// set stores the normalization, evicting the least recently used entry when
// the cache is full.
func (c *lruCache) set(key string, result model.Normalization) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruEntry).result = result
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(&lruEntry{key: key, result: result})

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry).key)
		}
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
