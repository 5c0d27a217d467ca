package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lexdraft/internal/analysis/models"
)

const keyPrefix = "analysis:"

// RedisCache keeps results in Redis with a TTL. Entries are advisory;
// losing them only costs a model call.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, contentKey string) (*models.Result, error) {
	payload, err := c.client.Get(ctx, keyPrefix+contentKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cached analysis: %w", err)
	}
	var result models.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal cached analysis: %w", err)
	}
	return &result, nil
}

func (c *RedisCache) Put(ctx context.Context, contentKey string, result *models.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+contentKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache analysis: %w", err)
	}
	return nil
}
