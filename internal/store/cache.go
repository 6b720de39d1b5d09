package store

import (
	"context"

	"go.uber.org/zap"
)

// Cache layers the in-memory LRU over an optional persistent SQLite cache.
// Persistence errors are logged and treated as misses so a broken cache
// never blocks embedding.
type Cache struct {
	mem    *MemoryCache
	db     *SQLiteCache
	logger *zap.Logger
}

// NewCache builds a tiered cache. db may be nil to run memory-only.
func NewCache(memorySize int, db *SQLiteCache, logger *zap.Logger) *Cache {
	return &Cache{
		mem:    NewMemoryCache(memorySize),
		db:     db,
		logger: logger,
	}
}

// Get checks the memory tier, then the persistent tier. A persistent hit is
// promoted into memory.
func (c *Cache) Get(ctx context.Context, model, text string) ([]float32, bool) {
	if vec, ok := c.mem.Get(model, text); ok {
		return vec, true
	}
	if c.db == nil {
		return nil, false
	}

	vec, found, err := c.db.Get(ctx, model, text)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("embedding cache read failed", zap.Error(err))
		}
		return nil, false
	}
	if !found {
		return nil, false
	}
	c.mem.Put(model, text, vec)
	return vec, true
}

// Put stores the vector in both tiers.
func (c *Cache) Put(ctx context.Context, model, text string, vec []float32) {
	c.mem.Put(model, text, vec)
	if c.db == nil {
		return
	}
	if err := c.db.Put(ctx, model, text, vec); err != nil && c.logger != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}
}

// Close closes the persistent tier if present.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
