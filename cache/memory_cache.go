package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data   []byte
	expiry time.Time
}

// MemoryCache implements CacheProvider using in-memory storage
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemoryCache creates a new in-memory cache provider
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		ttl:     DefaultTTL,
		entries: make(map[string]memoryEntry),
	}
}

// Initialize performs any necessary setup for the cache provider
func (c *MemoryCache) Initialize(ctx context.Context) error {
	return nil
}

// Get retrieves an entry if it has not expired
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiry) {
		return nil, false
	}
	return entry.data, true
}

// Set stores a copy of data
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		data:   append([]byte(nil), data...),
		expiry: time.Now().Add(c.ttl),
	}
	return nil
}

// InvalidateCache removes the given entries
func (c *MemoryCache) InvalidateCache(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

// SetCacheTTL sets the cache time-to-live duration
func (c *MemoryCache) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ttl = ttl
	// Update all existing expiries
	now := time.Now()
	for key, entry := range c.entries {
		entry.expiry = now.Add(ttl)
		c.entries[key] = entry
	}
}
