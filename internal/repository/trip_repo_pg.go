package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
	// LockByID reads the trip with a row lock held until the surrounding transaction ends.
	LockByID(ctx context.Context, id int64) (*domain.Trip, error)
	AdjustAvailableSeats(ctx context.Context, id int64, delta int) error
	Search(ctx context.Context, filter domain.TripFilter) ([]domain.Trip, error)
}

type PGTripRepository struct {
	db DBTX
}

func NewTripRepository(db DBTX) TripRepository {
	return &PGTripRepository{db: db}
}

const tripColumns = `id, origin_location, destination_location, departure_time, estimated_arrival_time,
	base_seat_price_cents, status, available_seats, COALESCE(notes, ''), created_at, updated_at`

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var t domain.Trip
	if err := row.Scan(&t.ID, &t.Origin, &t.Destination, &t.DepartureTime, &t.EstimatedArrivalTime,
		&t.BaseSeatPriceCents, &t.Status, &t.AvailableSeats, &t.Notes, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	err := r.db.QueryRow(ctx, `INSERT INTO trips (origin_location, destination_location, departure_time, estimated_arrival_time,
		base_seat_price_cents, status, available_seats, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING id, created_at, updated_at`,
		trip.Origin, trip.Destination, trip.DepartureTime, trip.EstimatedArrivalTime,
		trip.BaseSeatPriceCents, trip.Status, trip.AvailableSeats, trip.Notes).
		Scan(&trip.ID, &trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	return nil
}

func (r *PGTripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	return r.get(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
}

func (r *PGTripRepository) LockByID(ctx context.Context, id int64) (*domain.Trip, error) {
	return r.get(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1 FOR UPDATE`, id)
}

func (r *PGTripRepository) get(ctx context.Context, query string, id int64) (*domain.Trip, error) {
	t, err := scanTrip(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to get trip %d: %w", id, err)
	}
	return t, nil
}

func (r *PGTripRepository) AdjustAvailableSeats(ctx context.Context, id int64, delta int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE trips SET available_seats = available_seats + $1, updated_at = now() WHERE id = $2`, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust available seats of trip %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrTripNotFound
	}
	return nil
}

// Search lists scheduled trips departing on the filter's UTC day that still have free seats.
func (r *PGTripRepository) Search(ctx context.Context, filter domain.TripFilter) ([]domain.Trip, error) {
	day := filter.Date.UTC().Truncate(24 * time.Hour)
	rows, err := r.db.Query(ctx, `SELECT `+tripColumns+` FROM trips
		WHERE origin_location ILIKE $1
		  AND destination_location ILIKE $2
		  AND departure_time >= $3 AND departure_time < $4
		  AND status = $5
		  AND available_seats > 0
		ORDER BY departure_time ASC`,
		likePattern(filter.Origin), likePattern(filter.Destination), day, day.Add(24*time.Hour), domain.TripStatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("failed to search trips: %w", err)
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

var _ TripRepository = (*PGTripRepository)(nil)
