// Package memory implements the price cache in process memory.
package memory

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize bounds the cache when no size is configured.
const DefaultSize = 16384

// Cache is an LRU-bounded in-memory price cache. Unlike the Redis variant it
// does not survive process restarts; it exists for development and tests.
type Cache struct {
	entries *lru.Cache[string, float64]
}

// New builds a Cache holding at most size entries.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, float64](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached price for a title, reporting absence without error.
func (c *Cache) Get(_ context.Context, title string) (float64, bool, error) {
	price, ok := c.entries.Get(title)
	return price, ok, nil
}

// Set stores the price for a title.
func (c *Cache) Set(_ context.Context, title string, price float64) error {
	c.entries.Add(title, price)
	return nil
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}
