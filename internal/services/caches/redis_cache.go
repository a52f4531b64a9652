package caches

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"userflow-service/internal/services/cache"
	"userflow-service/internal/storage"
)

// RedisCache is a shared layer backed by Redis. Keys are namespaced by prefix.
type RedisCache struct {
	client *storage.RedisClient
	prefix string
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisCache(client *storage.RedisClient, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (rc *RedisCache) Name() string {
	return "REDIS"
}

func (rc *RedisCache) key(k string) string {
	return rc.prefix + k
}

func (rc *RedisCache) Store(ctx context.Context, key string, data []byte) error {
	if err := rc.client.SetBytes(ctx, rc.key(key), data, rc.ttl); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}
	return nil
}

func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := rc.client.GetBytes(ctx, rc.key(key))
	if err != nil {
		rc.misses.Add(1)
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if data == nil {
		rc.misses.Add(1)
		return nil, cache.ErrMiss
	}
	rc.hits.Add(1)
	return data, nil
}

func (rc *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := rc.client.Exists(ctx, rc.key(key))
	return n > 0, err
}

func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	return rc.client.Delete(ctx, rc.key(key))
}

func (rc *RedisCache) Clear(ctx context.Context) error {
	keys, err := rc.client.Keys(ctx, rc.prefix+"*")
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		if err := rc.client.Delete(ctx, keys...); err != nil {
			return err
		}
	}
	rc.hits.Store(0)
	rc.misses.Store(0)
	return nil
}

func (rc *RedisCache) GetStats() cache.LayerStats {
	hits, misses := rc.hits.Load(), rc.misses.Load()
	objects := 0
	if keys, err := rc.client.Keys(context.Background(), rc.prefix+"*"); err == nil {
		objects = len(keys)
	}
	return cache.LayerStats{
		Name:    "Redis",
		Objects: objects,
		Hits:    hits,
		Misses:  misses,
		HitRate: cache.HitRate(hits, misses),
	}
}
