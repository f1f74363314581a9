package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	HeaderEventType   = "event_type"
	HeaderEventID     = "event_id"
	HeaderAggregateID = "aggregate_id"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	brokers []string
	writer  messageWriter
	logger  *zap.Logger
}

func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return newProducer(brokers, writer, logger)
}

func newProducer(brokers []string, writer messageWriter, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{brokers: brokers, writer: writer, logger: logger}
}

// Publish writes an outbox message to its topic, keyed by booking so that all
// events of one booking land on the same partition in order.
func (p *Producer) Publish(ctx context.Context, msg *domain.OutboxMessage) error {
	message := kafka.Message{
		Topic: msg.Topic,
		Key:   []byte(msg.PartitionKey),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(msg.EventType)},
			{Key: HeaderEventID, Value: []byte(msg.ID)},
			{Key: HeaderAggregateID, Value: []byte(strconv.FormatInt(msg.AggregateID, 10))},
		},
		Time: time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.logger.Debug("published event",
		zap.String("topic", msg.Topic),
		zap.String("event_id", msg.ID),
		zap.String("event_type", string(msg.EventType)),
	)
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and lists partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no Kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}

	p.logger.Info("connected to Kafka", zap.Int("partitions", len(partitions)))
	return nil
}
