package domain

import (
	"fmt"
	"slices"
)

const (
	defaultLayoutRows = 2
	defaultLayoutCols = 2
	maxLayoutRows     = 26
	maxLayoutCols     = 99
)

// SeatAnnotation marks a position in the layout as special. A positive PriceCents
// replaces the trip base price for that seat.
type SeatAnnotation struct {
	Type       string `json:"type" yaml:"type"`
	PriceCents int64  `json:"price_cents,omitempty" yaml:"price_cents"`
}

// SeatLayout describes the vehicle seat grid a trip is generated from.
type SeatLayout struct {
	Rows          int                       `json:"rows"`
	Cols          int                       `json:"cols"`
	LayoutType    string                    `json:"layout_type,omitempty"`
	DisabledSeats []string                  `json:"disabled_seats,omitempty"`
	SpecialSeats  map[string]SeatAnnotation `json:"special_seats,omitempty"`
}

// Normalize fills the defaults a partially specified layout falls back to.
// A nil layout becomes the default 2x2 grid.
func (l *SeatLayout) Normalize() SeatLayout {
	if l == nil {
		return SeatLayout{Rows: defaultLayoutRows, Cols: defaultLayoutCols, LayoutType: "default_2x2"}
	}
	out := *l
	if out.Rows <= 0 {
		out.Rows = defaultLayoutRows
	}
	if out.Cols <= 0 {
		out.Cols = defaultLayoutCols
	}
	if out.LayoutType == "" {
		out.LayoutType = "custom"
	}
	return out
}

// SeatLabel renders the row/column position, both zero based, as A1, B3 and so on.
func SeatLabel(row, col int) string {
	return fmt.Sprintf("%c%d", 'A'+row, col+1)
}

// GenerateSeats derives the seat set of a new trip. Disabled positions are never instantiated.
// The returned seats carry no id or trip id yet.
func GenerateSeats(layout *SeatLayout, basePriceCents int64) ([]Seat, error) {
	l := layout.Normalize()
	if l.Rows > maxLayoutRows {
		return nil, InvalidLayout("layout has %d rows, at most %d are supported", l.Rows, maxLayoutRows)
	}
	if l.Cols > maxLayoutCols {
		return nil, InvalidLayout("layout has %d columns, at most %d are supported", l.Cols, maxLayoutCols)
	}
	if basePriceCents < 0 {
		return nil, InvalidLayout("base seat price must not be negative")
	}

	seats := make([]Seat, 0, l.Rows*l.Cols)
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Cols; c++ {
			label := SeatLabel(r, c)
			if slices.Contains(l.DisabledSeats, label) {
				continue
			}
			seat := Seat{
				Label:      label,
				PriceCents: basePriceCents,
				Status:     SeatStatusAvailable,
			}
			if ann, ok := l.SpecialSeats[label]; ok {
				seat.SpecialType = ann.Type
				if ann.PriceCents > 0 {
					seat.PriceCents = ann.PriceCents
				}
			}
			seats = append(seats, seat)
		}
	}
	if len(seats) == 0 {
		return nil, InvalidLayout("no valid seats could be generated from the seat layout")
	}
	return seats, nil
}
