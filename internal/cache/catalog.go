// Package cache keeps hot catalog listings in redis so list endpoints do not
// hit Postgres on every request. Entries are short-lived and dropped on any
// catalog mutation.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ProductsKey   = "catalog:products"
	CategoriesKey = "catalog:categories"

	defaultTTL = 30 * time.Second
)

type Catalog struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewCatalog(client *redis.Client, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Catalog{Redis: client, TTL: ttl}
}

// Get returns the cached payload for key, or ok=false on a miss. Redis
// failures degrade to a miss: the caller falls through to the store.
func (c *Catalog) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.Redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Catalog) Set(ctx context.Context, key string, payload []byte) error {
	return c.Redis.Set(ctx, key, payload, c.TTL).Err()
}

// Invalidate drops the given listing keys after a catalog write.
func (c *Catalog) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := c.Redis.Del(ctx, keys...).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
