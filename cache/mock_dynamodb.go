package cache

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MockDynamoDBClient implements DynamoDBAPI in memory for testing
type MockDynamoDBClient struct {
	mu     sync.RWMutex
	tables map[string]map[string]map[string]types.AttributeValue
}

// NewMockDynamoDBClient creates a new mock DynamoDB client
func NewMockDynamoDBClient() *MockDynamoDBClient {
	return &MockDynamoDBClient{
		tables: make(map[string]map[string]map[string]types.AttributeValue),
	}
}

// CreateTable mocks the CreateTable operation
func (m *MockDynamoDBClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tableName := aws.ToString(params.TableName)
	if _, ok := m.tables[tableName]; !ok {
		m.tables[tableName] = make(map[string]map[string]types.AttributeValue)
	}
	return &dynamodb.CreateTableOutput{}, nil
}

// DescribeTable mocks the DescribeTable operation
func (m *MockDynamoDBClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tableName := aws.ToString(params.TableName)
	if _, ok := m.tables[tableName]; !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found: " + tableName)}
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{TableName: aws.String(tableName)},
	}, nil
}

// GetItem mocks the GetItem operation
func (m *MockDynamoDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	table, ok := m.tables[aws.ToString(params.TableName)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: params.TableName}
	}
	item, ok := table[keyOf(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return &dynamodb.GetItemOutput{Item: out}, nil
}

// PutItem mocks the PutItem operation
func (m *MockDynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, ok := m.tables[aws.ToString(params.TableName)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: params.TableName}
	}
	table[keyOf(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

// DeleteItem mocks the DeleteItem operation
func (m *MockDynamoDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if table, ok := m.tables[aws.ToString(params.TableName)]; ok {
		delete(table, keyOf(params.Key))
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

// ItemCount returns the number of items stored in a table
func (m *MockDynamoDBClient) ItemCount(tableName string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[tableName])
}

func keyOf(item map[string]types.AttributeValue) string {
	if s, ok := item["key"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}
