package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader messageReader
	logger *zap.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}), logger)
}

func newConsumer(reader messageReader, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{reader: reader, logger: logger}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume hands every booking event to handler until ctx is done or handler fails.
// Messages that do not decode are logged and skipped.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, domain.BookingEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return err
		}

		event, err := DecodeBookingEvent(msg)
		if err != nil {
			c.logger.Warn("skipping undecodable message",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}

		if err := handler(ctx, event); err != nil {
			return fmt.Errorf("failed to handle %s event %s: %w", event.Type, event.EventID, err)
		}
	}
}

func DecodeBookingEvent(msg kafka.Message) (domain.BookingEvent, error) {
	var event domain.BookingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return event, err
	}
	if event.Type == "" || event.BookingID == 0 {
		return event, fmt.Errorf("message at offset %d is not a booking event", msg.Offset)
	}
	return event, nil
}
