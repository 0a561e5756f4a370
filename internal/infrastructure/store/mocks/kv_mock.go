package mocks

import (
	"context"
	"sync"
)

// MockKV is a KeyValueStore that can be told to fail. It deliberately does
// not implement store.Batcher so multi-key commits are written one key at a
// time.
type MockKV struct {
	mu   sync.Mutex
	data map[string]string

	SetCalls    []string
	RemoveCalls []string
	GetErr      error
	SetErr      error
	FailKeys    map[string]error
}

func NewMockKV() *MockKV {
	return &MockKV{
		data:     make(map[string]string),
		FailKeys: make(map[string]error),
	}
}

func (m *MockKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MockKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls = append(m.SetCalls, key)
	if err, ok := m.FailKeys[key]; ok {
		return err
	}
	if m.SetErr != nil {
		return m.SetErr
	}
	m.data[key] = value
	return nil
}

func (m *MockKV) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RemoveCalls = append(m.RemoveCalls, key)
	delete(m.data, key)
	return nil
}

// Put seeds a raw value without recording a call
func (m *MockKV) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Value returns the raw stored value
func (m *MockKV) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// FailOn makes every Set of key return err
func (m *MockKV) FailOn(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailKeys[key] = err
}

// Heal clears all injected failures
func (m *MockKV) Heal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailKeys = make(map[string]error)
	m.GetErr = nil
	m.SetErr = nil
}
