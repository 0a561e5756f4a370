package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/example/furniture-market/internal/infrastructure/store"
	"github.com/google/uuid"
)

// MockEventStore records appended events for assertions
type MockEventStore struct {
	mu     sync.RWMutex
	events []store.Event

	AppendCalls []AppendCall
	AppendErr   error
}

// AppendCall records parameters passed to Append
type AppendCall struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Data          any
}

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{}
}

// Append records the call and stores the event unless AppendErr is set
func (m *MockEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCalls = append(m.AppendCalls, AppendCall{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
	})

	if m.AppendErr != nil {
		return nil, m.AppendErr
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	version := 1
	for _, e := range m.events {
		if e.AggregateID == aggregateID {
			version++
		}
	}
	event := store.Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       version,
	}
	m.events = append(m.events, event)
	return &event, nil
}

// GetEvents returns events for an aggregate
func (m *MockEventStore) GetEvents(aggregateID string) []store.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []store.Event
	for _, e := range m.events {
		if e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out
}

// GetAllEvents returns all events in append order
func (m *MockEventStore) GetAllEvents() []store.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]store.Event(nil), m.events...)
}

// EventTypes lists the types of the recorded Append calls in order
func (m *MockEventStore) EventTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	types := make([]string, 0, len(m.AppendCalls))
	for _, c := range m.AppendCalls {
		types = append(types, c.EventType)
	}
	return types
}
