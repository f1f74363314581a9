package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type SeatRepository interface {
	// CreateBatch inserts the generated seats of a new trip and returns them with ids, in generation order.
	CreateBatch(ctx context.Context, tripID int64, seats []domain.Seat) ([]domain.Seat, error)
	ListByTrip(ctx context.Context, tripID int64) ([]domain.Seat, error)
	// LockForTrip locks the requested seats of the trip in id order. Ids that do not
	// belong to the trip are silently absent from the result.
	LockForTrip(ctx context.Context, tripID int64, seatIDs []int64) ([]domain.Seat, error)
	Claim(ctx context.Context, seatIDs []int64, userID, bookingID int64) (int64, error)
	Release(ctx context.Context, seatIDs []int64, bookingID int64) (int64, error)
}

type PGSeatRepository struct {
	db DBTX
}

func NewSeatRepository(db DBTX) SeatRepository {
	return &PGSeatRepository{db: db}
}

const seatColumns = `id, trip_id, seat_number, price_cents, status, COALESCE(special_type, ''), user_id, booking_id`

func scanSeats(rows pgx.Rows) ([]domain.Seat, error) {
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.TripID, &s.Label, &s.PriceCents, &s.Status, &s.SpecialType, &s.UserID, &s.BookingID); err != nil {
			return nil, fmt.Errorf("failed to scan seat: %w", err)
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

func (r *PGSeatRepository) CreateBatch(ctx context.Context, tripID int64, seats []domain.Seat) ([]domain.Seat, error) {
	labels := make([]string, len(seats))
	prices := make([]int64, len(seats))
	types := make([]string, len(seats))
	for i, s := range seats {
		labels[i] = s.Label
		prices[i] = s.PriceCents
		types[i] = s.SpecialType
	}

	rows, err := r.db.Query(ctx, `INSERT INTO seats (trip_id, seat_number, price_cents, status, special_type)
		SELECT $1, l.seat_number, l.price_cents, $5, NULLIF(l.special_type, '')
		FROM unnest($2::text[], $3::bigint[], $4::text[]) WITH ORDINALITY AS l(seat_number, price_cents, special_type, ord)
		ORDER BY l.ord
		RETURNING `+seatColumns,
		tripID, labels, prices, types, domain.SeatStatusAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to insert seats of trip %d: %w", tripID, err)
	}
	created, err := scanSeats(rows)
	if err != nil {
		return nil, err
	}
	if len(created) != len(seats) {
		return nil, fmt.Errorf("inserted %d seats of trip %d, expected %d", len(created), tripID, len(seats))
	}
	return created, nil
}

func (r *PGSeatRepository) ListByTrip(ctx context.Context, tripID int64) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT `+seatColumns+` FROM seats WHERE trip_id = $1 ORDER BY id`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seats of trip %d: %w", tripID, err)
	}
	return scanSeats(rows)
}

func (r *PGSeatRepository) LockForTrip(ctx context.Context, tripID int64, seatIDs []int64) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT `+seatColumns+` FROM seats
		WHERE id = ANY($1::bigint[]) AND trip_id = $2
		ORDER BY id
		FOR UPDATE`, seatIDs, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock seats of trip %d: %w", tripID, err)
	}
	return scanSeats(rows)
}

func (r *PGSeatRepository) Claim(ctx context.Context, seatIDs []int64, userID, bookingID int64) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE seats SET status = $1, user_id = $2, booking_id = $3
		WHERE id = ANY($4::bigint[]) AND status = $5`,
		domain.SeatStatusBooked, userID, bookingID, seatIDs, domain.SeatStatusAvailable)
	if err != nil {
		return 0, fmt.Errorf("failed to claim seats for booking %d: %w", bookingID, err)
	}
	return cmd.RowsAffected(), nil
}

func (r *PGSeatRepository) Release(ctx context.Context, seatIDs []int64, bookingID int64) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE seats SET status = $1, user_id = NULL, booking_id = NULL
		WHERE id = ANY($2::bigint[]) AND booking_id = $3`,
		domain.SeatStatusAvailable, seatIDs, bookingID)
	if err != nil {
		return 0, fmt.Errorf("failed to release seats of booking %d: %w", bookingID, err)
	}
	return cmd.RowsAffected(), nil
}

var _ SeatRepository = (*PGSeatRepository)(nil)
