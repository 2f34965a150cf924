package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ammiranda/repose/config"
)

// NewProvider creates and initializes the cache provider selected by cfg.
// The "none" backend returns a nil provider.
func NewProvider(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (CacheProvider, error) {
	var provider CacheProvider
	switch cfg.CacheBackend {
	case config.CacheNone, "":
		return nil, nil
	case config.CacheMemory:
		provider = NewMemoryCache()
	case config.CacheRedis:
		provider = NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
	case config.CacheDynamoDB:
		dynamo, err := NewDynamoDBCache(ctx, cfg.CacheTable, log)
		if err != nil {
			return nil, err
		}
		provider = dynamo
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}

	if cfg.CacheTTL > 0 {
		provider.SetCacheTTL(cfg.CacheTTL)
	}
	if err := provider.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s cache: %w", cfg.CacheBackend, err)
	}
	return provider, nil
}
