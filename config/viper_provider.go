package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ViperProvider implements Provider on top of viper, so flags, config files and
// environment variables resolve through one lookup
type ViperProvider struct {
	v *viper.Viper
}

// NewViperProvider creates a provider reading from v. Keys are matched case-insensitively
// and environment variables are read with the given prefix.
func NewViperProvider(v *viper.Viper, envPrefix string) *ViperProvider {
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return &ViperProvider{v: v}
}

// GetEnvironment returns the current environment
func (p *ViperProvider) GetEnvironment() Environment {
	env := p.v.GetString("APP_ENV")
	if env == "" {
		return Development
	}
	return Environment(env)
}

// GetString retrieves a string configuration value
func (p *ViperProvider) GetString(ctx context.Context, key string) (string, error) {
	value := p.v.GetString(key)
	if value == "" {
		return "", fmt.Errorf("configuration key %s not set", key)
	}
	return value, nil
}

// GetInt retrieves an integer configuration value
func (p *ViperProvider) GetInt(ctx context.Context, key string) (int, error) {
	return intValue(ctx, p, key)
}

// GetBool retrieves a boolean configuration value
func (p *ViperProvider) GetBool(ctx context.Context, key string) (bool, error) {
	return boolValue(ctx, p, key)
}

// GetSecret retrieves a secret value
func (p *ViperProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return p.GetString(ctx, key)
}
