package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items keyed by the "key" attribute
type fakeDynamo struct {
	mu          sync.Mutex
	items       map[string]map[string]types.AttributeValue
	transactErr error
	transacts   int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(attrs map[string]types.AttributeValue) string {
	if s, ok := attrs["key"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, keyOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transacts++
	if f.transactErr != nil {
		return nil, f.transactErr
	}
	for _, item := range in.TransactItems {
		f.items[keyOf(item.Put.Item)] = item.Put.Item
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func TestDynamoKV_Contract(t *testing.T) {
	kvContract(t, NewDynamoKV(newFakeDynamo(), "market"))
}

func TestDynamoKV_SetManyUsesOneTransaction(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	kv := NewDynamoKV(fake, "market")

	require.NoError(t, kv.SetMany(ctx, map[string]string{"a": "1", "b": "2", "c": "3"}))

	assert.Equal(t, 1, fake.transacts)
	assert.Len(t, fake.items, 3)
}

func TestDynamoKV_SetManyFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	fake.transactErr = errors.New("TransactionCanceledException")
	kv := NewDynamoKV(fake, "market")

	err := kv.SetMany(ctx, map[string]string{"a": "1", "b": "2"})

	require.Error(t, err)
	assert.Empty(t, fake.items)
}

func TestDynamoKV_SetManyRejectsOversizedBatch(t *testing.T) {
	kv := NewDynamoKV(newFakeDynamo(), "market")
	entries := make(map[string]string, maxTransactItems+1)
	for i := 0; i <= maxTransactItems; i++ {
		entries[fmt.Sprintf("k%d", i)] = "v"
	}

	assert.Error(t, kv.SetMany(context.Background(), entries))
}
