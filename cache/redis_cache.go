package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "repose:"

// RedisCache implements CacheProvider using Redis
type RedisCache struct {
	client *redis.Client
	mu     sync.RWMutex
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache provider for addr (host:port)
func NewRedisCache(addr, password string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0, // use default DB
	})

	return &RedisCache{
		client: client,
		ttl:    DefaultTTL,
	}
}

// Initialize checks that the server is reachable
func (c *RedisCache) Initialize(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get retrieves an entry; redis expires it on its own
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores an entry with the current TTL
func (c *RedisCache) Set(ctx context.Context, key string, data []byte) error {
	c.mu.RLock()
	ttl := c.ttl
	c.mu.RUnlock()
	return c.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err()
}

// InvalidateCache deletes the given entries
func (c *RedisCache) InvalidateCache(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = redisKeyPrefix + key
	}
	err := c.client.Del(ctx, prefixed...).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// SetCacheTTL sets the cache time-to-live duration
func (c *RedisCache) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
