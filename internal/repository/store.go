package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the statement surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a connection pool that can open transactions.
type DB interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repositories groups the per-aggregate repositories bound to one connection or transaction.
type Repositories struct {
	Trips        TripRepository
	Seats        SeatRepository
	Bookings     BookingRepository
	Transactions TransactionRepository
	Outbox       OutboxRepository
}

// Store hands out repositories. Every call made through the Repositories passed to
// WithinTx runs in the same database transaction; the transaction commits when fn
// returns nil and rolls back otherwise.
type Store interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
}

type PGStore struct {
	db DB
}

func NewStore(db DB) *PGStore {
	return &PGStore{db: db}
}

func newRepositories(q DBTX) Repositories {
	return Repositories{
		Trips:        &PGTripRepository{db: q},
		Seats:        &PGSeatRepository{db: q},
		Bookings:     &PGBookingRepository{db: q},
		Transactions: &PGTransactionRepository{db: q},
		Outbox:       &PGOutboxRepository{db: q},
	}
}

func (s *PGStore) Repos() Repositories {
	return newRepositories(s.db)
}

func (s *PGStore) WithinTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

var _ Store = (*PGStore)(nil)
