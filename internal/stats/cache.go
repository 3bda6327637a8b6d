package stats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "stats:summary"

// Cache stores the computed summary in Redis with a TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get loads the cached summary. The second return reports a hit.
func (c *Cache) Get(ctx context.Context) (Summary, bool, error) {
	if c == nil || c.client == nil {
		return Summary{}, false, nil
	}
	payload, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Summary{}, false, nil
		}
		return Summary{}, false, err
	}
	var summary Summary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return Summary{}, false, err
	}
	return summary, true, nil
}

// Set stores the summary.
func (c *Cache) Set(ctx context.Context, summary Summary) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey, payload, c.ttl).Err()
}
