package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/kapehan/cafe-pos/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// JSONCache is a read-through cache for derived documents such as the menu.
// Cache failures are logged and reported as misses so callers fall back to
// the database.
type JSONCache struct {
	client *redis.Client
}

func NewJSONCache(client *redis.Client) *JSONCache {
	return &JSONCache{client: client}
}

// Get reports whether key was found and decoded into dst.
func (c *JSONCache) Get(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		logger.Warn("Cache read failed", logger.Fields{"key": key, "error": err.Error()})
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Warn("Cache entry undecodable", logger.Fields{"key": key, "error": err.Error()})
		return false
	}
	return true
}

func (c *JSONCache) Set(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("Cache encode failed", logger.Fields{"key": key, "error": err.Error()})
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Warn("Cache write failed", logger.Fields{"key": key, "error": err.Error()})
	}
}

func (c *JSONCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("Cache invalidation failed", logger.Fields{"keys": keys, "error": err.Error()})
	}
}
