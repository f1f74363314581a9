package domain

import "time"

type BookingStatus string

const (
	BookingStatusPendingPayment  BookingStatus = "pending_payment"
	BookingStatusConfirmed       BookingStatus = "confirmed"
	BookingStatusCancelledByUser BookingStatus = "cancelled_by_user"
	BookingStatusFailed          BookingStatus = "failed"
)

// HoldsSeats reports whether a booking in this status still owns its seats.
func (s BookingStatus) HoldsSeats() bool {
	return s == BookingStatusPendingPayment || s == BookingStatusConfirmed
}

type Booking struct {
	ID               int64         `json:"id"`
	UserID           int64         `json:"user_id"`
	TripID           int64         `json:"trip_id"`
	TotalAmountCents int64         `json:"total_amount_cents"`
	Status           BookingStatus `json:"status"`
	CreatedAt        time.Time     `json:"booking_time"`
	UpdatedAt        time.Time     `json:"updated_at"`
	Items            []BookingItem `json:"items,omitempty"`
	Trip             *TripSummary  `json:"trip,omitempty"`
}

// BookingItem is an immutable line item: one claimed seat and its price at claim time.
type BookingItem struct {
	ID                  int64  `json:"id"`
	BookingID           int64  `json:"booking_id"`
	SeatID              int64  `json:"seat_id"`
	SeatLabel           string `json:"seat_number,omitempty"`
	PriceAtBookingCents int64  `json:"price_at_booking_cents"`
}

// TripSummary is the slice of trip data shown next to a user's booking.
type TripSummary struct {
	Origin               string    `json:"origin"`
	Destination          string    `json:"destination"`
	DepartureTime        time.Time `json:"departure_time"`
	EstimatedArrivalTime time.Time `json:"estimated_arrival_time"`
}

// ItemsTotal sums the prices recorded on the booking's line items.
func (b *Booking) ItemsTotal() int64 {
	var total int64
	for _, it := range b.Items {
		total += it.PriceAtBookingCents
	}
	return total
}

func (b *Booking) SeatIDs() []int64 {
	ids := make([]int64, 0, len(b.Items))
	for _, it := range b.Items {
		ids = append(ids, it.SeatID)
	}
	return ids
}
