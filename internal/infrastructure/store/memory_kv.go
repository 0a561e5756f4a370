package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryKV is an in-memory KeyValueStore. It stands in for browser local
// storage in tests and ephemeral sessions.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		data: make(map[string]string),
	}
}

// Get retrieves a value by key
func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	return value, ok, nil
}

// Set stores a value
func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Remove deletes a key; removing a missing key is not an error
func (m *MemoryKV) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// SetMany writes all entries under one lock
func (m *MemoryKV) SetMany(ctx context.Context, entries map[string]string) error {
	for key := range entries {
		if key == "" {
			return ErrEmptyKey
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range entries {
		m.data[key] = value
	}
	return nil
}

// Keys returns the stored keys in sorted order
func (m *MemoryKV) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
