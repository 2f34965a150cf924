package config

import (
	"context"
	"fmt"
	"net"
	"regexp"
)

var (
	validSSLModes = map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}

	dbNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

	// Production passwords must match every pattern
	passwordRules = []struct {
		pattern *regexp.Regexp
		message string
	}{
		{regexp.MustCompile(`[A-Z]`), "password must contain at least one uppercase letter in production"},
		{regexp.MustCompile(`[a-z]`), "password must contain at least one lowercase letter in production"},
		{regexp.MustCompile(`[0-9]`), "password must contain at least one number in production"},
		{regexp.MustCompile(`[^A-Za-z0-9]`), "password must contain at least one special character in production"},
	}
)

// minProductionPasswordLen applies when APP_ENV is production
const minProductionPasswordLen = 12

// DatabaseConfig holds the connection settings of the postgres storage driver
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ConnString returns the lib/pq keyword/value connection string
func (c *DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// weakPassword describes why password is too weak for production, or returns ""
func weakPassword(password string) string {
	if len(password) < minProductionPasswordLen {
		return fmt.Sprintf("password must be at least %d characters long in production", minProductionPasswordLen)
	}
	for _, rule := range passwordRules {
		if !rule.pattern.MatchString(password) {
			return rule.message
		}
	}
	return ""
}

// dbCheck reports a problem with one field, or "" when the field is fine
type dbCheck struct {
	field string
	check func(c *DatabaseConfig, env Environment) string
}

// Checks run in order and the first failure is reported
var dbChecks = []dbCheck{
	{"Host", func(c *DatabaseConfig, _ Environment) string {
		if c.Host == "" {
			return "host cannot be empty"
		}
		if net.ParseIP(c.Host) != nil {
			return ""
		}
		if _, err := net.LookupHost(c.Host); err != nil {
			return "invalid hostname or IP address"
		}
		return ""
	}},
	{"Port", func(c *DatabaseConfig, _ Environment) string {
		if c.Port <= 0 || c.Port > 65535 {
			return "port must be between 1 and 65535"
		}
		return ""
	}},
	{"User", func(c *DatabaseConfig, _ Environment) string {
		if c.User == "" {
			return "user cannot be empty"
		}
		return ""
	}},
	{"Password", func(c *DatabaseConfig, env Environment) string {
		if c.Password == "" {
			return "password cannot be empty"
		}
		if env != Production {
			return ""
		}
		return weakPassword(c.Password)
	}},
	{"DBName", func(c *DatabaseConfig, _ Environment) string {
		if c.DBName == "" {
			return "database name cannot be empty"
		}
		if !dbNamePattern.MatchString(c.DBName) {
			return "database name must start with a letter and contain only letters, numbers, and underscores"
		}
		return ""
	}},
	{"SSLMode", func(c *DatabaseConfig, env Environment) string {
		if !validSSLModes[c.SSLMode] {
			return "invalid SSL mode"
		}
		if env == Production && c.SSLMode == "disable" {
			return "SSL cannot be disabled in production"
		}
		return ""
	}},
}

// Validate checks the configuration against the rules of env. Production requires
// strong passwords and SSL.
func (c *DatabaseConfig) Validate(env Environment) error {
	for _, dc := range dbChecks {
		if msg := dc.check(c, env); msg != "" {
			return &ValidationError{Field: dc.field, Message: msg}
		}
	}
	return nil
}

// GetDatabaseConfig reads DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME and the
// optional DB_SSLMODE from provider
func GetDatabaseConfig(ctx context.Context, provider Provider) (*DatabaseConfig, error) {
	cfg := &DatabaseConfig{SSLMode: stringOr(ctx, provider, "DB_SSLMODE", "disable")}

	for key, dst := range map[string]*string{
		"DB_HOST": &cfg.Host,
		"DB_USER": &cfg.User,
		"DB_NAME": &cfg.DBName,
	} {
		value, err := provider.GetString(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", key, err)
		}
		*dst = value
	}

	port, err := provider.GetInt(ctx, "DB_PORT")
	if err != nil {
		return nil, fmt.Errorf("failed to get DB_PORT: %w", err)
	}
	cfg.Port = port

	password, err := provider.GetSecret(ctx, "DB_PASSWORD")
	if err != nil {
		return nil, fmt.Errorf("failed to get DB_PASSWORD: %w", err)
	}
	cfg.Password = password

	if err := cfg.Validate(provider.GetEnvironment()); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}
	return cfg, nil
}
