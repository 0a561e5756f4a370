package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// LoadDocument reads a single JSON record. A missing key yields (nil, nil);
// an undecodable or invalid value is removed and also yields (nil, nil).
func LoadDocument[T any](ctx context.Context, kv KeyValueStore, key string, logger *zap.Logger) (*T, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}

	var doc T
	decodeErr := json.Unmarshal([]byte(raw), &doc)
	if decodeErr == nil {
		decodeErr = Validate(&doc)
	}
	if decodeErr != nil {
		if logger != nil {
			logger.Warn("Discarding corrupted document", zap.String("key", key), zap.Error(decodeErr))
		}
		if err := kv.Remove(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", key, err)
		}
		return nil, nil
	}
	return &doc, nil
}

// SaveDocument writes a single JSON record
func SaveDocument(ctx context.Context, kv KeyValueStore, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return kv.Set(ctx, key, string(data))
}

// DocumentChange stages a single JSON record for Commit
func DocumentChange(key string, doc any) (*Change, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return &Change{Key: key, Value: string(data)}, nil
}
