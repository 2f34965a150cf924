package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DefaultTableName is the DynamoDB table used when none is configured
const DefaultTableName = "ReposeCache"

// DynamoDBAPI defines the interface for DynamoDB operations
type DynamoDBAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// CacheItem is the stored shape of a cache entry
type CacheItem struct {
	Key       string `dynamodbav:"key"`
	Data      []byte `dynamodbav:"data"`
	Timestamp int64  `dynamodbav:"timestamp"`
	TTL       int64  `dynamodbav:"ttl"`
}

// DynamoDBCache implements CacheProvider using DynamoDB
type DynamoDBCache struct {
	client    DynamoDBAPI
	tableName string
	log       *zap.Logger

	mu       sync.RWMutex
	cacheTTL time.Duration
}

// NewDynamoDBCache creates a new DynamoDB cache provider from the default AWS configuration
func NewDynamoDBCache(ctx context.Context, tableName string, log *zap.Logger) (*DynamoDBCache, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewDynamoDBCacheWithClient(dynamodb.NewFromConfig(cfg), tableName, log), nil
}

// NewDynamoDBCacheWithClient creates a new DynamoDB cache provider with a custom client
func NewDynamoDBCacheWithClient(client DynamoDBAPI, tableName string, log *zap.Logger) *DynamoDBCache {
	if tableName == "" {
		tableName = DefaultTableName
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DynamoDBCache{
		client:    client,
		tableName: tableName,
		log:       log,
		cacheTTL:  DefaultTTL,
	}
}

// Initialize creates the DynamoDB table if it doesn't exist
func (c *DynamoDBCache) Initialize(ctx context.Context) error {
	_, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.tableName),
	})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("error describing table %s: %w", c.tableName, err)
	}

	_, err = c.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(c.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("key"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("key"),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("error creating table %s: %w", c.tableName, err)
	}
	return nil
}

func (c *DynamoDBCache) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"key": &types.AttributeValueMemberS{Value: key},
	}
}

// Get retrieves an entry, deleting it when it has expired
func (c *DynamoDBCache) Get(ctx context.Context, key string) ([]byte, bool) {
	result, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key:       c.itemKey(key),
	})
	if err != nil || result.Item == nil {
		return nil, false
	}

	var item CacheItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false
	}

	if time.Now().Unix() > item.TTL {
		if err := c.InvalidateCache(ctx, key); err != nil {
			c.log.Warn("error deleting expired cache item", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return item.Data, true
}

// Set stores an entry with the current TTL
func (c *DynamoDBCache) Set(ctx context.Context, key string, data []byte) error {
	c.mu.RLock()
	ttl := c.cacheTTL
	c.mu.RUnlock()

	now := time.Now()
	av, err := attributevalue.MarshalMap(CacheItem{
		Key:       key,
		Data:      data,
		Timestamp: now.Unix(),
		TTL:       now.Add(ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("error encoding cache item: %w", err)
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("error storing cache item: %w", err)
	}
	return nil
}

// InvalidateCache deletes the given entries
func (c *DynamoDBCache) InvalidateCache(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(c.tableName),
			Key:       c.itemKey(key),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("error deleting %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// SetCacheTTL sets the cache time-to-live duration
func (c *DynamoDBCache) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheTTL = ttl
}
