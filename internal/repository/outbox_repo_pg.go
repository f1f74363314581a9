package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, msg *domain.OutboxMessage) error
	// FetchPending and FetchRetryable skip rows locked by another relay, so they
	// only make sense inside a transaction.
	FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	FetchRetryable(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkPublished(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type PGOutboxRepository struct {
	db DBTX
}

func NewOutboxRepository(db DBTX) OutboxRepository {
	return &PGOutboxRepository{db: db}
}

const outboxColumns = `id, event_type, aggregate_id, topic, partition_key, payload, status, retry_count, max_retries,
	COALESCE(last_error, ''), created_at, published_at`

func (r *PGOutboxRepository) Enqueue(ctx context.Context, msg *domain.OutboxMessage) error {
	_, err := r.db.Exec(ctx, `INSERT INTO outbox (id, event_type, aggregate_id, topic, partition_key, payload, status, max_retries, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		msg.ID, msg.EventType, msg.AggregateID, msg.Topic, msg.PartitionKey, msg.Payload, msg.Status, msg.MaxRetries, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s event: %w", msg.EventType, err)
	}
	return nil
}

func (r *PGOutboxRepository) FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	return r.fetch(ctx, `SELECT `+outboxColumns+` FROM outbox
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
}

func (r *PGOutboxRepository) FetchRetryable(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	return r.fetch(ctx, `SELECT `+outboxColumns+` FROM outbox
		WHERE status = 'failed' AND retry_count < max_retries
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
}

func (r *PGOutboxRepository) fetch(ctx context.Context, query string, limit int) ([]domain.OutboxMessage, error) {
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox messages: %w", err)
	}
	return scanOutbox(rows)
}

func scanOutbox(rows pgx.Rows) ([]domain.OutboxMessage, error) {
	defer rows.Close()

	msgs := make([]domain.OutboxMessage, 0)
	for rows.Next() {
		var m domain.OutboxMessage
		if err := rows.Scan(&m.ID, &m.EventType, &m.AggregateID, &m.Topic, &m.PartitionKey, &m.Payload, &m.Status,
			&m.RetryCount, &m.MaxRetries, &m.LastError, &m.CreatedAt, &m.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *PGOutboxRepository) MarkPublished(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE outbox SET status = 'published', published_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox message %s published: %w", id, err)
	}
	return nil
}

func (r *PGOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.db.Exec(ctx, `UPDATE outbox SET status = 'failed', retry_count = retry_count + 1, last_error = $2 WHERE id = $1`, id, reason)
	if err != nil {
		return fmt.Errorf("failed to mark outbox message %s failed: %w", id, err)
	}
	return nil
}

var _ OutboxRepository = (*PGOutboxRepository)(nil)
