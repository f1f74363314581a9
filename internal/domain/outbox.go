package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

const defaultOutboxMaxRetries = 5

// OutboxMessage is a row of the outbox table, written in the same transaction as
// the state change it announces and relayed to Kafka afterwards.
type OutboxMessage struct {
	ID           string
	EventType    EventType
	AggregateID  int64
	Topic        string
	PartitionKey string
	Payload      []byte
	Status       OutboxStatus
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

func NewOutboxMessage(topic string, event BookingEvent) (*OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &OutboxMessage{
		ID:           event.EventID,
		EventType:    event.Type,
		AggregateID:  event.BookingID,
		Topic:        topic,
		PartitionKey: strconv.FormatInt(event.BookingID, 10),
		Payload:      payload,
		Status:       OutboxStatusPending,
		MaxRetries:   defaultOutboxMaxRetries,
		CreatedAt:    event.OccurredAt,
	}, nil
}

func (m *OutboxMessage) CanRetry() bool {
	return m.Status == OutboxStatusFailed && m.RetryCount < m.MaxRetries
}
