package domain

import "time"

type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingCancelled EventType = "booking.cancelled"
	EventPaymentRequested EventType = "payment.requested"
	EventPaymentCompleted EventType = "payment.completed"
	EventPaymentFailed    EventType = "payment.failed"
)

// BookingEvent is the payload relayed to Kafka for every booking state change.
type BookingEvent struct {
	EventID       string        `json:"event_id"`
	Type          EventType     `json:"type"`
	BookingID     int64         `json:"booking_id"`
	UserID        int64         `json:"user_id"`
	TripID        int64         `json:"trip_id,omitempty"`
	SeatIDs       []int64       `json:"seat_ids,omitempty"`
	AmountCents   int64         `json:"amount_cents"`
	Status        BookingStatus `json:"status"`
	TransactionID int64         `json:"transaction_id,omitempty"`
	OccurredAt    time.Time     `json:"occurred_at"`
}
