package repository

import (
	"time"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/pashagolub/pgxmock/v4"
)

var (
	tripCols        = []string{"id", "origin_location", "destination_location", "departure_time", "estimated_arrival_time", "base_seat_price_cents", "status", "available_seats", "notes", "created_at", "updated_at"}
	seatCols        = []string{"id", "trip_id", "seat_number", "price_cents", "status", "special_type", "user_id", "booking_id"}
	bookingCols     = []string{"id", "user_id", "trip_id", "total_amount_cents", "status", "booking_time", "updated_at"}
	transactionCols = []string{"id", "user_id", "booking_id", "amount_cents", "type", "status", "gateway", "description", "gateway_transaction_id", "created_at", "updated_at"}
	outboxCols      = []string{"id", "event_type", "aggregate_id", "topic", "partition_key", "payload", "status", "retry_count", "max_retries", "last_error", "created_at", "published_at"}
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func tripRow(id int64, status domain.TripStatus, available int) *pgxmock.Rows {
	return pgxmock.NewRows(tripCols).AddRow(id, "Tehran", "Isfahan", fixedNow.Add(48*time.Hour), fixedNow.Add(54*time.Hour),
		int64(50), status, available, "", fixedNow, fixedNow)
}

func seatRows(seats ...domain.Seat) *pgxmock.Rows {
	rows := pgxmock.NewRows(seatCols)
	for _, s := range seats {
		rows.AddRow(s.ID, s.TripID, s.Label, s.PriceCents, s.Status, s.SpecialType, s.UserID, s.BookingID)
	}
	return rows
}
