// Package redis implements the price cache on Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the subset of redis operations the cache uses (for testing).
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Config holds connection settings for the Redis price cache.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Cache maps product titles to their last persisted price. Entries have no
// expiration and survive across runs.
type Cache struct {
	client Client
	rdb    *redis.Client
	prefix string
}

// New connects to Redis and returns a Cache. Close releases the connection.
func New(cfg Config) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Cache{
		client: rdb,
		rdb:    rdb,
		prefix: cfg.KeyPrefix,
	}
}

// NewWithClient builds a Cache over an existing client (used in tests).
func NewWithClient(client Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Get returns the cached price for a title, reporting absence without error.
func (c *Cache) Get(ctx context.Context, title string) (float64, bool, error) {
	val, err := c.client.Get(ctx, c.key(title)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get %q: %w", title, err)
	}
	price, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cache entry for %q: %w", title, err)
	}
	return price, true, nil
}

// Set stores the price for a title without expiration.
func (c *Cache) Set(ctx context.Context, title string, price float64) error {
	val := strconv.FormatFloat(price, 'f', -1, 64)
	if err := c.client.Set(ctx, c.key(title), val, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", title, err)
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (c *Cache) Ping(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying connection, if this cache owns one.
func (c *Cache) Close() error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}

func (c *Cache) key(title string) string {
	return c.prefix + title
}
