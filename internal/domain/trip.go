package domain

import "time"

type TripStatus string

const (
	TripStatusScheduled TripStatus = "scheduled"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusBooked    SeatStatus = "booked"
)

type Trip struct {
	ID                   int64      `json:"id"`
	Origin               string     `json:"origin"`
	Destination          string     `json:"destination"`
	DepartureTime        time.Time  `json:"departure_time"`
	EstimatedArrivalTime time.Time  `json:"estimated_arrival_time"`
	BaseSeatPriceCents   int64      `json:"base_seat_price_cents"`
	Status               TripStatus `json:"status"`
	AvailableSeats       int        `json:"available_seats"`
	Notes                string     `json:"notes,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Bookable reports whether new seat claims may be made against the trip.
func (t *Trip) Bookable() bool {
	return t.Status == TripStatusScheduled
}

// UntilDeparture is the time left between now and the trip departure.
func (t *Trip) UntilDeparture(now time.Time) time.Duration {
	return t.DepartureTime.Sub(now)
}

type Seat struct {
	ID          int64      `json:"id"`
	TripID      int64      `json:"trip_id"`
	Label       string     `json:"seat_number"`
	PriceCents  int64      `json:"price_cents"`
	Status      SeatStatus `json:"status"`
	SpecialType string     `json:"special_type,omitempty"`
	UserID      *int64     `json:"user_id,omitempty"`
	BookingID   *int64     `json:"booking_id,omitempty"`
}

func (s *Seat) Available() bool {
	return s.Status == SeatStatusAvailable
}

// TripWithSeats is the seat map read model served to clients.
type TripWithSeats struct {
	Trip  Trip   `json:"trip"`
	Seats []Seat `json:"seats"`
}

type TripFilter struct {
	Origin      string
	Destination string
	Date        time.Time
}
