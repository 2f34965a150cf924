package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Cache backends
const (
	CacheNone     = "none"
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CacheDynamoDB = "dynamodb"
)

// AppName names the per-user data directory
const AppName = "repose"

// StorageConfig selects the storage engine and the read cache in front of it
type StorageConfig struct {
	Driver        string
	DataDir       string
	CacheBackend  string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	CacheTable    string
}

// Validate checks if the storage configuration is valid
func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.DataDir == "" {
			return &ValidationError{Field: "DataDir", Message: "data directory cannot be empty for the sqlite driver"}
		}
	case DriverPostgres, DriverMemory:
	default:
		return &ValidationError{Field: "Driver", Message: fmt.Sprintf("unknown storage driver %q", c.Driver)}
	}

	switch c.CacheBackend {
	case CacheNone, CacheMemory, CacheDynamoDB:
	case CacheRedis:
		if c.RedisAddr == "" {
			return &ValidationError{Field: "RedisAddr", Message: "redis address cannot be empty"}
		}
	default:
		return &ValidationError{Field: "CacheBackend", Message: fmt.Sprintf("unknown cache backend %q", c.CacheBackend)}
	}

	if c.CacheTTL < 0 {
		return &ValidationError{Field: "CacheTTL", Message: "cache TTL cannot be negative"}
	}
	return nil
}

// DefaultDataDir returns the per-user data directory, following XDG_DATA_HOME when set
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, ".local", "share", AppName)
}

// GetStorageConfig retrieves storage configuration using the provided config provider.
// Every key is optional.
func GetStorageConfig(ctx context.Context, provider Provider) (*StorageConfig, error) {
	ttl := DefaultCacheTTL
	if raw, err := provider.GetString(ctx, "CACHE_TTL"); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, &ValidationError{Field: "CacheTTL", Message: fmt.Sprintf("invalid duration %q", raw)}
		}
		ttl = parsed
	}

	redisHost := stringOr(ctx, provider, "REDIS_HOST", "localhost")
	redisPort := stringOr(ctx, provider, "REDIS_PORT", "6379")
	redisPassword, err := provider.GetSecret(ctx, "REDIS_PASSWORD")
	if err != nil {
		redisPassword = "" // no password set
	}

	cfg := &StorageConfig{
		Driver:        stringOr(ctx, provider, "STORAGE_DRIVER", DriverSQLite),
		DataDir:       stringOr(ctx, provider, "DATA_DIR", DefaultDataDir()),
		CacheBackend:  stringOr(ctx, provider, "CACHE_BACKEND", CacheNone),
		CacheTTL:      ttl,
		RedisAddr:     redisHost + ":" + redisPort,
		RedisPassword: redisPassword,
		CacheTable:    stringOr(ctx, provider, "CACHE_TABLE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage configuration: %w", err)
	}
	return cfg, nil
}

// DefaultCacheTTL is used when CACHE_TTL is not set
const DefaultCacheTTL = 5 * time.Minute

func stringOr(ctx context.Context, provider Provider, key, fallback string) string {
	value, err := provider.GetString(ctx, key)
	if err != nil || value == "" {
		return fallback
	}
	return value
}
