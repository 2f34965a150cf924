package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/goccy/go-json"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used by AWSSecretsProvider
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretRefreshInterval bounds how long a fetched secret is reused
const SecretRefreshInterval = 15 * time.Minute

// AWSSecretsProvider implements Provider using a JSON secret in AWS Secrets Manager
type AWSSecretsProvider struct {
	client      SecretsManagerAPI
	secretName  string
	environment Environment

	mu        sync.Mutex
	cache     map[string]string
	lastFetch time.Time
}

// NewAWSSecretsProvider creates a new AWS Secrets Manager based configuration provider
func NewAWSSecretsProvider(ctx context.Context, secretName string) (*AWSSecretsProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewAWSSecretsProviderWithClient(secretsmanager.NewFromConfig(cfg), secretName, environmentFromEnv()), nil
}

// NewAWSSecretsProviderWithClient creates a provider over an existing client
func NewAWSSecretsProviderWithClient(client SecretsManagerAPI, secretName string, env Environment) *AWSSecretsProvider {
	return &AWSSecretsProvider{
		client:      client,
		secretName:  secretName,
		environment: env,
	}
}

// NewAWSConfigProvider creates an AWS provider for the secret named by AWS_SECRET_NAME
func NewAWSConfigProvider(ctx context.Context) (*AWSSecretsProvider, error) {
	secretName := os.Getenv("AWS_SECRET_NAME")
	if secretName == "" {
		return nil, fmt.Errorf("AWS_SECRET_NAME environment variable not set")
	}
	return NewAWSSecretsProvider(ctx, secretName)
}

// GetEnvironment returns the current environment
func (p *AWSSecretsProvider) GetEnvironment() Environment {
	return p.environment
}

func (p *AWSSecretsProvider) secrets(ctx context.Context) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cache != nil && time.Since(p.lastFetch) < SecretRefreshInterval {
		return p.cache, nil
	}

	secret, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret: %w", err)
	}

	var secretMap map[string]string
	if err := json.Unmarshal([]byte(aws.ToString(secret.SecretString)), &secretMap); err != nil {
		return nil, fmt.Errorf("failed to parse secret JSON: %w", err)
	}
	if err := validateSecretSchema(secretMap, p.environment); err != nil {
		return nil, fmt.Errorf("invalid secret schema: %w", err)
	}

	p.cache = secretMap
	p.lastFetch = time.Now()
	return secretMap, nil
}

// GetString retrieves a string configuration value from the secret
func (p *AWSSecretsProvider) GetString(ctx context.Context, key string) (string, error) {
	secrets, err := p.secrets(ctx)
	if err != nil {
		return "", err
	}
	value, ok := secrets[key]
	if !ok {
		return "", fmt.Errorf("secret key %s not found", key)
	}
	return value, nil
}

// GetInt retrieves an integer configuration value from the secret
func (p *AWSSecretsProvider) GetInt(ctx context.Context, key string) (int, error) {
	return intValue(ctx, p, key)
}

// GetBool retrieves a boolean configuration value from the secret
func (p *AWSSecretsProvider) GetBool(ctx context.Context, key string) (bool, error) {
	return boolValue(ctx, p, key)
}

// GetSecret retrieves a secret value
func (p *AWSSecretsProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return p.GetString(ctx, key)
}

// validateSecretSchema validates the database keys of a secret. A secret that carries
// no database keys (cache credentials only) is accepted.
func validateSecretSchema(secrets map[string]string, env Environment) error {
	requiredKeys := []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE"}

	present := 0
	for _, key := range requiredKeys {
		if _, ok := secrets[key]; ok {
			present++
		}
	}
	if present == 0 {
		return nil
	}
	for _, key := range requiredKeys {
		if _, ok := secrets[key]; !ok {
			return &ValidationError{Field: key, Message: "required secret key not found"}
		}
	}

	if _, err := strconv.Atoi(secrets["DB_PORT"]); err != nil {
		return &ValidationError{Field: "DB_PORT", Message: "port must be a valid number"}
	}
	if !validSSLModes[secrets["DB_SSLMODE"]] {
		return &ValidationError{Field: "DB_SSLMODE", Message: "invalid SSL mode"}
	}

	if env == Production {
		if strings.ToLower(secrets["DB_HOST"]) == "localhost" {
			return &ValidationError{Field: "DB_HOST", Message: "localhost is not allowed in production"}
		}
		if secrets["DB_SSLMODE"] == "disable" {
			return &ValidationError{Field: "DB_SSLMODE", Message: "SSL cannot be disabled in production"}
		}
		if msg := weakPassword(secrets["DB_PASSWORD"]); msg != "" {
			return &ValidationError{Field: "DB_PASSWORD", Message: msg}
		}
	}
	return nil
}
