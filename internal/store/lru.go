package store

import (
	"container/list"
	"sync"
)

// MemoryCache is a fixed-capacity LRU of embedding vectors keyed by
// model plus text hash. Safe for concurrent use.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
}

type memoryEntry struct {
	key string
	vec []float32
}

// NewMemoryCache creates an LRU holding up to capacity vectors. A capacity
// of zero or less disables the cache (all lookups miss).
func NewMemoryCache(capacity int) *MemoryCache {
	return &MemoryCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached vector for key, marking it most recently used.
func (c *MemoryCache) Get(model, text string) ([]float32, bool) {
	if c.capacity <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[memoryKey(model, text)]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*memoryEntry).vec, true
}

// Put stores the vector for key, evicting the least recently used entry when
// the cache is full.
func (c *MemoryCache) Put(model, text string, vec []float32) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := memoryKey(model, text)
	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*memoryEntry).vec = vec
		return
	}

	elem := c.order.PushFront(&memoryEntry{key: key, vec: vec})
	c.items[key] = elem

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*memoryEntry).key)
		}
	}
}

// Len returns the number of cached vectors.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func memoryKey(model, text string) string {
	return model + ":" + hashText(text)
}
