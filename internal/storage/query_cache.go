package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// QueryCache caches serialized stats query results in Redis with a short
// TTL. The store only ever grows during a run, so brief staleness is
// acceptable on the read side.
type QueryCache struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewQueryCache creates a new query cache
func NewQueryCache(cache *RedisCache, ttl time.Duration) *QueryCache {
	return &QueryCache{cache: cache, ttl: ttl}
}

// Key builds the cache key for a named query and its parameters
func (qc *QueryCache) Key(query string, params ...interface{}) string {
	key := "stats:" + query
	for _, p := range params {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

// Get unmarshals a cached result into dest. Returns false on a miss.
func (qc *QueryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := qc.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		// A corrupt entry is treated as a miss so it gets overwritten
		return false, nil
	}

	return true, nil
}

// Set marshals and stores a result under the key
func (qc *QueryCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := qc.cache.Set(ctx, key, string(data), qc.ttl); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}

	return nil
}
