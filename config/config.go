// Package config resolves runtime settings from the environment, viper or AWS Secrets Manager.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// Environment represents the application environment
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Provider defines the interface for configuration management
type Provider interface {
	// GetString retrieves a string configuration value
	GetString(ctx context.Context, key string) (string, error)
	// GetInt retrieves an integer configuration value
	GetInt(ctx context.Context, key string) (int, error)
	// GetBool retrieves a boolean configuration value
	GetBool(ctx context.Context, key string) (bool, error)
	// GetSecret retrieves a secret value
	GetSecret(ctx context.Context, key string) (string, error)
	// GetEnvironment returns the current environment
	GetEnvironment() Environment
}

func environmentFromEnv() Environment {
	env := os.Getenv("APP_ENV")
	if env == "" {
		return Development
	}
	return Environment(env)
}

// EnvProvider implements Provider using environment variables
type EnvProvider struct {
	prefix      string
	environment Environment
}

// NewEnvProvider creates a new environment-based configuration provider
func NewEnvProvider(prefix string) Provider {
	return &EnvProvider{
		prefix:      prefix,
		environment: environmentFromEnv(),
	}
}

// GetEnvironment returns the current environment
func (p *EnvProvider) GetEnvironment() Environment {
	return p.environment
}

// GetString retrieves a string configuration value from environment variables
func (p *EnvProvider) GetString(ctx context.Context, key string) (string, error) {
	value := os.Getenv(p.prefix + key)
	if value == "" {
		return "", fmt.Errorf("environment variable %s%s not set", p.prefix, key)
	}
	return value, nil
}

// GetInt retrieves an integer configuration value from environment variables
func (p *EnvProvider) GetInt(ctx context.Context, key string) (int, error) {
	return intValue(ctx, p, key)
}

// GetBool retrieves a boolean configuration value from environment variables
func (p *EnvProvider) GetBool(ctx context.Context, key string) (bool, error) {
	return boolValue(ctx, p, key)
}

// GetSecret retrieves a secret value from environment variables
func (p *EnvProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return p.GetString(ctx, key)
}

func intValue(ctx context.Context, p Provider, key string) (int, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func boolValue(ctx context.Context, p Provider, key string) (bool, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// ChainProvider resolves each key from the first provider that has it
type ChainProvider struct {
	providers []Provider
}

// NewChainProvider creates a provider consulting providers in order.
// The environment is taken from the first one.
func NewChainProvider(providers ...Provider) *ChainProvider {
	return &ChainProvider{providers: providers}
}

// GetEnvironment returns the environment of the first provider
func (p *ChainProvider) GetEnvironment() Environment {
	if len(p.providers) == 0 {
		return Development
	}
	return p.providers[0].GetEnvironment()
}

// GetString retrieves the first value found
func (p *ChainProvider) GetString(ctx context.Context, key string) (string, error) {
	var lastErr error = fmt.Errorf("configuration key %s not set", key)
	for _, provider := range p.providers {
		value, err := provider.GetString(ctx, key)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// GetInt retrieves the first integer value found
func (p *ChainProvider) GetInt(ctx context.Context, key string) (int, error) {
	return intValue(ctx, p, key)
}

// GetBool retrieves the first boolean value found
func (p *ChainProvider) GetBool(ctx context.Context, key string) (bool, error) {
	return boolValue(ctx, p, key)
}

// GetSecret retrieves the first secret found
func (p *ChainProvider) GetSecret(ctx context.Context, key string) (string, error) {
	var lastErr error = fmt.Errorf("secret %s not set", key)
	for _, provider := range p.providers {
		value, err := provider.GetSecret(ctx, key)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}
	return "", lastErr
}
