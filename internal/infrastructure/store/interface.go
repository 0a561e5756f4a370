package store

import "context"

// EventStoreInterface defines the interface for the domain event log
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)
	GetEvents(aggregateID string) []Event
	GetAllEvents() []Event
}

// Publisher forwards stored events to an external broker
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}
