package policies

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// PopularCacheKey is the Redis key holding the precomputed popular list,
// written by the background refresh job and read by the API.
const PopularCacheKey = "policies:popular"

// Cache stores the popular-policies listing in Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetPopular returns the cached listing, or (nil, nil) on a miss.
func (c *Cache) GetPopular(ctx context.Context) ([]Policy, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, PopularCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var policies []Policy
	if err := json.Unmarshal(data, &policies); err != nil {
		return nil, err
	}
	return policies, nil
}

// SetPopular stores the listing with the configured TTL.
func (c *Cache) SetPopular(ctx context.Context, policies []Policy) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(policies)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, PopularCacheKey, data, c.ttl).Err()
}
