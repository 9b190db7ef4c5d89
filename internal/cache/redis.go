package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"bazaar/internal/domain"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 10 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, itemID string) (*domain.Item, error) {
	data, err := r.client.Get(ctx, cacheKey(itemID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var it domain.Item
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("unmarshal item failed: %w", err)
	}
	return &it, nil
}

func (r *RedisCache) Set(ctx context.Context, item *domain.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item failed: %w", err)
	}

	// jitter keeps a freshly seeded catalog from expiring all at once
	ttl := r.baseTTL + time.Duration(rand.Intn(120))*time.Second
	if err := r.client.Set(ctx, cacheKey(item.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, itemID string) error {
	if err := r.client.Del(ctx, cacheKey(itemID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(itemID string) string {
	return fmt.Sprintf("item:%s", itemID)
}
