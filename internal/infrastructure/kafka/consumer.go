package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

type Consumer struct {
	reader *kafka.Reader
	logger *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: logger.With(zap.String("topic", topic))}
}

// Consume reads until ctx is cancelled. Handler errors are logged and the
// message is committed anyway.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("Error reading message", zap.Error(err))
			continue
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			c.logger.Error("Error handling message",
				zap.ByteString("key", msg.Key),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
