package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	LockByID(ctx context.Context, id int64) (*domain.Transaction, error)
	MarkCompleted(ctx context.Context, id int64, gatewayRef string) error
	MarkFailed(ctx context.Context, id int64) error
	// FailPendingForBooking resolves every still pending transaction of the booking as failed.
	FailPendingForBooking(ctx context.Context, bookingID int64) (int64, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Transaction, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
}

type PGTransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) TransactionRepository {
	return &PGTransactionRepository{db: db}
}

const transactionColumns = `id, user_id, booking_id, amount_cents, type, status, gateway, COALESCE(description, ''),
	gateway_transaction_id, created_at, updated_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := row.Scan(&t.ID, &t.UserID, &t.BookingID, &t.AmountCents, &t.Type, &t.Status, &t.Gateway, &t.Description,
		&t.GatewayTransactionID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGTransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	err := r.db.QueryRow(ctx, `INSERT INTO transactions (user_id, booking_id, amount_cents, type, status, gateway, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		t.UserID, t.BookingID, t.AmountCents, t.Type, t.Status, t.Gateway, t.Description).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (r *PGTransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	return r.get(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
}

func (r *PGTransactionRepository) LockByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	return r.get(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
}

func (r *PGTransactionRepository) get(ctx context.Context, query string, id int64) (*domain.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return t, nil
}

func (r *PGTransactionRepository) MarkCompleted(ctx context.Context, id int64, gatewayRef string) error {
	return r.resolve(ctx, id, domain.TransactionStatusCompleted, &gatewayRef)
}

func (r *PGTransactionRepository) MarkFailed(ctx context.Context, id int64) error {
	return r.resolve(ctx, id, domain.TransactionStatusFailed, nil)
}

// resolve only moves a pending transaction; a resolved one is reported as such.
func (r *PGTransactionRepository) resolve(ctx context.Context, id int64, status domain.TransactionStatus, gatewayRef *string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE transactions SET status = $1, gateway_transaction_id = $2, updated_at = now()
		WHERE id = $3 AND status = $4`,
		status, gatewayRef, id, domain.TransactionStatusPending)
	if err != nil {
		return fmt.Errorf("failed to resolve transaction %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrTransactionAlreadyResolved
	}
	return nil
}

func (r *PGTransactionRepository) FailPendingForBooking(ctx context.Context, bookingID int64) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE transactions SET status = $1, updated_at = now() WHERE booking_id = $2 AND status = $3`,
		domain.TransactionStatusFailed, bookingID, domain.TransactionStatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to supersede transactions of booking %d: %w", bookingID, err)
	}
	return cmd.RowsAffected(), nil
}

func (r *PGTransactionRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions of user %d: %w", userID, err)
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func (r *PGTransactionRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions of user %d: %w", userID, err)
	}
	return n, nil
}

var _ TransactionRepository = (*PGTransactionRepository)(nil)
