package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// maxTransactItems is the DynamoDB limit for one TransactWriteItems call
const maxTransactItems = 100

// DynamoAPI is the subset of the DynamoDB client used by DynamoKV
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoKV stores each key as one item in a DynamoDB table with a string
// partition key named "key".
type DynamoKV struct {
	client    DynamoAPI
	tableName string
}

// dynamoEntry represents the DynamoDB item structure
type dynamoEntry struct {
	Key       string `dynamodbav:"key"`
	Value     string `dynamodbav:"value"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func NewDynamoKV(client DynamoAPI, tableName string) *DynamoKV {
	return &DynamoKV{
		client:    client,
		tableName: tableName,
	}
}

func (d *DynamoKV) keyAttr(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"key": &types.AttributeValueMemberS{Value: key},
	}
}

func (d *DynamoKV) item(key, value string) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(dynamoEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}
	return av, nil
}

// Get retrieves a value by key using a consistent read
func (d *DynamoKV) Get(ctx context.Context, key string) (string, bool, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            d.keyAttr(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to get item: %w", err)
	}
	if result.Item == nil {
		return "", false, nil
	}

	var entry dynamoEntry
	if err := attributevalue.UnmarshalMap(result.Item, &entry); err != nil {
		return "", false, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return entry.Value, true, nil
}

// Set stores a value
func (d *DynamoKV) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	av, err := d.item(key, value)
	if err != nil {
		return err
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

// Remove deletes a key
func (d *DynamoKV) Remove(ctx context.Context, key string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       d.keyAttr(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// SetMany writes all entries in one transaction
func (d *DynamoKV) SetMany(ctx context.Context, entries map[string]string) error {
	if len(entries) > maxTransactItems {
		return fmt.Errorf("batch of %d entries exceeds transaction limit of %d", len(entries), maxTransactItems)
	}

	items := make([]types.TransactWriteItem, 0, len(entries))
	for key, value := range entries {
		if key == "" {
			return ErrEmptyKey
		}
		av, err := d.item(key, value)
		if err != nil {
			return err
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(d.tableName),
				Item:      av,
			},
		})
	}

	_, err := d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return fmt.Errorf("failed to write transaction: %w", err)
	}
	return nil
}
