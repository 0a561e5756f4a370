package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event represents a domain event
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
}

// EventStore keeps the events of the running process and publishes them
type EventStore struct {
	mu        sync.RWMutex
	events    map[string][]Event // aggregateID -> events
	all       []Event
	publisher Publisher
}

// NewEventStore creates an event store; publisher may be nil
func NewEventStore(publisher Publisher) *EventStore {
	return &EventStore{
		events:    make(map[string][]Event),
		publisher: publisher,
	}
}

// Append stores an event and publishes it when a publisher is configured
func (es *EventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	es.mu.Lock()
	version := len(es.events[aggregateID]) + 1
	event := Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       version,
	}
	es.events[aggregateID] = append(es.events[aggregateID], event)
	es.all = append(es.all, event)
	es.mu.Unlock()

	if es.publisher != nil {
		if err := es.publisher.Publish(ctx, aggregateID, event); err != nil {
			return &event, err
		}
	}

	return &event, nil
}

// GetEvents returns all events for an aggregate
func (es *EventStore) GetEvents(aggregateID string) []Event {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return append([]Event(nil), es.events[aggregateID]...)
}

// GetAllEvents returns all events in append order
func (es *EventStore) GetAllEvents() []Event {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return append([]Event(nil), es.all...)
}

// Emit appends an event for a change that is already persisted. A failing
// event log never undoes the change, so errors are logged and dropped.
func Emit(ctx context.Context, es EventStoreInterface, logger *zap.Logger, aggregateID, aggregateType, eventType string, data any) {
	if es == nil {
		return
	}
	if _, err := es.Append(ctx, aggregateID, aggregateType, eventType, data); err != nil && logger != nil {
		logger.Warn("Failed to record event",
			zap.String("event_type", eventType),
			zap.String("aggregate_id", aggregateID),
			zap.Error(err))
	}
}
