package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	AddItems(ctx context.Context, bookingID int64, items []domain.BookingItem) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	LockByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	ListItems(ctx context.Context, bookingID int64) ([]domain.BookingItem, error)
	// ListByUser returns the user's bookings, newest first, with items and trip summary attached.
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, trip_id, total_amount_cents, status, booking_time, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (user_id, trip_id, total_amount_cents, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, booking_time, updated_at`,
		booking.UserID, booking.TripID, booking.TotalAmountCents, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) AddItems(ctx context.Context, bookingID int64, items []domain.BookingItem) error {
	seatIDs := make([]int64, len(items))
	prices := make([]int64, len(items))
	for i, it := range items {
		seatIDs[i] = it.SeatID
		prices[i] = it.PriceAtBookingCents
	}

	cmd, err := r.db.Exec(ctx, `INSERT INTO booking_items (booking_id, seat_id, price_at_booking_cents)
		SELECT $1, i.seat_id, i.price FROM unnest($2::bigint[], $3::bigint[]) AS i(seat_id, price)`,
		bookingID, seatIDs, prices)
	if err != nil {
		return fmt.Errorf("failed to insert items of booking %d: %w", bookingID, err)
	}
	if cmd.RowsAffected() != int64(len(items)) {
		return fmt.Errorf("inserted %d items of booking %d, expected %d", cmd.RowsAffected(), bookingID, len(items))
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *PGBookingRepository) LockByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *PGBookingRepository) get(ctx context.Context, query string, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.QueryRow(ctx, query, id).
		Scan(&b.ID, &b.UserID, &b.TripID, &b.TotalAmountCents, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking %d: %w", id, err)
	}
	return &b, nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *PGBookingRepository) ListItems(ctx context.Context, bookingID int64) ([]domain.BookingItem, error) {
	items, err := r.listItems(ctx, []int64{bookingID})
	if err != nil {
		return nil, err
	}
	return items[bookingID], nil
}

func (r *PGBookingRepository) listItems(ctx context.Context, bookingIDs []int64) (map[int64][]domain.BookingItem, error) {
	rows, err := r.db.Query(ctx, `SELECT bi.id, bi.booking_id, bi.seat_id, s.seat_number, bi.price_at_booking_cents
		FROM booking_items bi
		JOIN seats s ON s.id = bi.seat_id
		WHERE bi.booking_id = ANY($1::bigint[])
		ORDER BY bi.booking_id, bi.seat_id`, bookingIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]domain.BookingItem, len(bookingIDs))
	for rows.Next() {
		var it domain.BookingItem
		if err := rows.Scan(&it.ID, &it.BookingID, &it.SeatID, &it.SeatLabel, &it.PriceAtBookingCents); err != nil {
			return nil, fmt.Errorf("failed to scan booking item: %w", err)
		}
		items[it.BookingID] = append(items[it.BookingID], it)
	}
	return items, rows.Err()
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT b.id, b.user_id, b.trip_id, b.total_amount_cents, b.status, b.booking_time, b.updated_at,
			t.origin_location, t.destination_location, t.departure_time, t.estimated_arrival_time
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		WHERE b.user_id = $1
		ORDER BY b.booking_time DESC, b.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings of user %d: %w", userID, err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		var trip domain.TripSummary
		if err := rows.Scan(&b.ID, &b.UserID, &b.TripID, &b.TotalAmountCents, &b.Status, &b.CreatedAt, &b.UpdatedAt,
			&trip.Origin, &trip.Destination, &trip.DepartureTime, &trip.EstimatedArrivalTime); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.Trip = &trip
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}

	ids := make([]int64, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
	}
	items, err := r.listItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		bookings[i].Items = items[bookings[i].ID]
	}
	return bookings, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
