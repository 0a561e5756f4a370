package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/furniture-market/internal/infrastructure/store"
)

const (
	defaultWriteTimeout = 2 * time.Second
	defaultMaxAttempts  = 3
)

// HeaderEventType carries the event type so consumers can route without
// decoding the payload
const HeaderEventType = "event_type"

// ProducerConfig configures the event publisher. WriteTimeout bounds one
// Publish call including retries, so an unreachable broker slows a write by
// at most that long.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	MaxAttempts  int
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes marketplace events to one topic, keyed by record ID so
// the events of one record stay ordered on one partition
type Producer struct {
	writer  messageWriter
	timeout time.Duration
	now     func() time.Time
}

func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           cfg.WriteTimeout,
		MaxAttempts:            cfg.MaxAttempts,
		WriteBackoffMax:        cfg.WriteTimeout / time.Duration(cfg.MaxAttempts+1),
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newProducer(writer, cfg.WriteTimeout)
}

func newProducer(writer messageWriter, timeout time.Duration) *Producer {
	return &Producer{writer: writer, timeout: timeout, now: time.Now}
}

// Publish encodes event as JSON and waits for the broker at most the
// configured write timeout
func (p *Producer) Publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  p.now(),
	}
	if e, ok := event.(store.Event); ok {
		msg.Headers = []kafka.Header{{Key: HeaderEventType, Value: []byte(e.EventType)}}
		msg.Time = e.Timestamp
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
