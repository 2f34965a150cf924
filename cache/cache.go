package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ammiranda/repose/models"
	"github.com/ammiranda/repose/repository"
)

// DefaultTTL is the lifetime of a cache entry unless SetCacheTTL says otherwise
const DefaultTTL = 5 * time.Minute

const (
	collectionsKey = "collections"
	nodesKeyPrefix = "nodes:"
)

// CacheProvider defines the interface for cache implementations.
// Entries are opaque encoded blobs addressed by key.
type CacheProvider interface {
	// Initialize performs any necessary setup for the cache provider.
	// This may include establishing connections or creating tables.
	Initialize(ctx context.Context) error

	// Get retrieves an entry if it is present and not expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores an entry for the current TTL.
	Set(ctx context.Context, key string, data []byte) error

	// InvalidateCache removes the given entries.
	InvalidateCache(ctx context.Context, keys ...string) error

	// SetCacheTTL sets the lifetime of entries stored from now on.
	SetCacheTTL(ttl time.Duration)
}

// Cache keeps loaded forests in a CacheProvider. A nil *Cache is valid and never hits.
type Cache struct {
	provider CacheProvider
	log      *zap.Logger
}

// New wraps provider. A nil provider yields a nil *Cache.
func New(provider CacheProvider, log *zap.Logger) *Cache {
	if provider == nil {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{provider: provider, log: log}
}

func nodesKey(scope repository.Scope) string {
	return nodesKeyPrefix + scope.String()
}

// GetCollections returns the cached collection forest
func (c *Cache) GetCollections(ctx context.Context) ([]*models.Collection, bool) {
	var collections []*models.Collection
	if !c.get(ctx, collectionsKey, &collections) {
		return nil, false
	}
	return collections, true
}

// SetCollections caches the collection forest
func (c *Cache) SetCollections(ctx context.Context, collections []*models.Collection) {
	c.set(ctx, collectionsKey, collections)
}

// GetNodes returns the cached node forest of scope
func (c *Cache) GetNodes(ctx context.Context, scope repository.Scope) ([]*models.Node, bool) {
	var nodes []*models.Node
	if !c.get(ctx, nodesKey(scope), &nodes) {
		return nil, false
	}
	return nodes, true
}

// SetNodes caches the node forest of scope
func (c *Cache) SetNodes(ctx context.Context, scope repository.Scope, nodes []*models.Node) {
	c.set(ctx, nodesKey(scope), nodes)
}

// Invalidate drops every cached forest. Any save may change all of them.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	keys := []string{
		collectionsKey,
		nodesKey(repository.ScopeAttached),
		nodesKey(repository.ScopeDetached),
	}
	if err := c.provider.InvalidateCache(ctx, keys...); err != nil {
		c.log.Warn("error invalidating cache", zap.Error(err))
	}
}

func (c *Cache) get(ctx context.Context, key string, v any) bool {
	if c == nil {
		return false
	}
	data, ok := c.provider.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.log.Warn("discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) set(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("error encoding cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.provider.Set(ctx, key, data); err != nil {
		c.log.Warn("error storing cache entry", zap.String("key", key), zap.Error(err))
		// A failed write must not leave a stale entry behind
		if err := c.provider.InvalidateCache(ctx, key); err != nil {
			c.log.Warn("error invalidating cache after write failure", zap.Error(err))
		}
	}
}
