package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"velo-routes-builder/internal/domain"
	"velo-routes-builder/internal/ports"
)

// RedisRouteCache stores route documents as JSON string values under the
// key "route-<id>". Entries are written without a TTL: the cache has no
// eviction policy and staleness is the caller's responsibility.
type RedisRouteCache struct {
	Client *redis.Client
}

func NewRedisRouteCache(client *redis.Client) *RedisRouteCache {
	return &RedisRouteCache{Client: client}
}

func (c *RedisRouteCache) Get(ctx context.Context, id string) (*domain.RouteRecord, error) {
	key := domain.CacheKey(id)

	data, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		log.Printf("warn: route cache: redis get %s: %v (treating as miss)", key, err)
		return nil, ports.ErrCacheMiss
	}

	var record domain.RouteRecord
	if err := json.Unmarshal(data, &record); err != nil {
		log.Printf("warn: route cache: corrupt value for %s: %v (treating as miss)", key, err)
		return nil, ports.ErrCacheMiss
	}

	return &record, nil
}

func (c *RedisRouteCache) Put(ctx context.Context, id string, record *domain.RouteRecord) error {
	key := domain.CacheKey(id)

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("route cache: encode %s: %w", key, err)
	}

	if err := c.Client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("route cache: redis set %s: %w", key, err)
	}

	return nil
}
