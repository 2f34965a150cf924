package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCacheInitialization is returned when the mock cache is configured to fail
var ErrCacheInitialization = errors.New("mock cache initialization failed")

// ErrMockFailure is returned by mock writes while ShouldFail is set
var ErrMockFailure = errors.New("mock cache failure")

// MockCache records how it is called and can be switched into failing.
// Entries are kept in a MemoryCache.
type MockCache struct {
	mu         sync.Mutex
	store      *MemoryCache
	calls      [callKinds]int
	ShouldFail bool
}

type callKind int

const (
	callGet callKind = iota
	callSet
	callInvalidate
	callSetTTL
	callInit
	callKinds
)

// NewMockCache creates a new mock cache provider
func NewMockCache() *MockCache {
	return &MockCache{store: NewMemoryCache()}
}

// record counts a call and returns the entry store, or false if the call should fail
func (c *MockCache) record(kind callKind) (*MemoryCache, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[kind]++
	return c.store, !c.ShouldFail
}

// Initialize fails with ErrCacheInitialization while ShouldFail is set
func (c *MockCache) Initialize(ctx context.Context) error {
	store, ok := c.record(callInit)
	if !ok {
		return ErrCacheInitialization
	}
	return store.Initialize(ctx)
}

// Get misses while ShouldFail is set
func (c *MockCache) Get(ctx context.Context, key string) ([]byte, bool) {
	store, ok := c.record(callGet)
	if !ok {
		return nil, false
	}
	return store.Get(ctx, key)
}

// Set stores an entry
func (c *MockCache) Set(ctx context.Context, key string, data []byte) error {
	store, ok := c.record(callSet)
	if !ok {
		return ErrMockFailure
	}
	return store.Set(ctx, key, data)
}

// InvalidateCache removes the given entries
func (c *MockCache) InvalidateCache(ctx context.Context, keys ...string) error {
	store, ok := c.record(callInvalidate)
	if !ok {
		return ErrMockFailure
	}
	return store.InvalidateCache(ctx, keys...)
}

// SetCacheTTL sets the time-to-live unless ShouldFail is set
func (c *MockCache) SetCacheTTL(ttl time.Duration) {
	if store, ok := c.record(callSetTTL); ok {
		store.SetCacheTTL(ttl)
	}
}

// Reset clears the counters, the entries and ShouldFail
func (c *MockCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = [callKinds]int{}
	c.ShouldFail = false
	c.store = NewMemoryCache()
}

// GetCallCounts returns the number of times each method was called
func (c *MockCache) GetCallCounts() (get, set, invalidate, setTTL, init int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[callGet], c.calls[callSet], c.calls[callInvalidate], c.calls[callSetTTL], c.calls[callInit]
}

// SetShouldFail makes the mock cache fail all operations
func (c *MockCache) SetShouldFail(shouldFail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ShouldFail = shouldFail
}
