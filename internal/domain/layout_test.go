package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seatLabels(seats []Seat) []string {
	labels := make([]string, 0, len(seats))
	for _, s := range seats {
		labels = append(labels, s.Label)
	}
	return labels
}

func TestGenerateSeats_SkipsDisabled(t *testing.T) {
	layout := &SeatLayout{Rows: 2, Cols: 2, DisabledSeats: []string{"B2"}}

	seats, err := GenerateSeats(layout, 50)

	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "B1"}, seatLabels(seats))
	for _, s := range seats {
		assert.Equal(t, SeatStatusAvailable, s.Status)
		assert.Equal(t, int64(50), s.PriceCents)
		assert.Nil(t, s.BookingID)
	}
}

func TestGenerateSeats_Defaults(t *testing.T) {
	testCases := []struct {
		name   string
		layout *SeatLayout
		want   []string
	}{
		{name: "Nil layout", layout: nil, want: []string{"A1", "A2", "B1", "B2"}},
		{name: "Zero rows", layout: &SeatLayout{Rows: 0, Cols: 3}, want: []string{"A1", "A2", "A3", "B1", "B2", "B3"}},
		{name: "Negative cols", layout: &SeatLayout{Rows: 1, Cols: -1}, want: []string{"A1", "A2"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			seats, err := GenerateSeats(tc.layout, 100)
			require.NoError(t, err)
			assert.Equal(t, tc.want, seatLabels(seats))
		})
	}
}

func TestGenerateSeats_SpecialSeats(t *testing.T) {
	layout := &SeatLayout{
		Rows: 1,
		Cols: 3,
		SpecialSeats: map[string]SeatAnnotation{
			"A1": {Type: "female_only"},
			"A3": {Type: "front_window", PriceCents: 75},
		},
	}

	seats, err := GenerateSeats(layout, 50)

	require.NoError(t, err)
	require.Len(t, seats, 3)
	assert.Equal(t, "female_only", seats[0].SpecialType)
	assert.Equal(t, int64(50), seats[0].PriceCents)
	assert.Equal(t, "", seats[1].SpecialType)
	assert.Equal(t, int64(75), seats[2].PriceCents)
}

func TestGenerateSeats_Invalid(t *testing.T) {
	testCases := []struct {
		name   string
		layout *SeatLayout
		price  int64
	}{
		{name: "All disabled", layout: &SeatLayout{Rows: 1, Cols: 2, DisabledSeats: []string{"A1", "A2"}}, price: 10},
		{name: "Too many rows", layout: &SeatLayout{Rows: 27, Cols: 1}, price: 10},
		{name: "Too many cols", layout: &SeatLayout{Rows: 1, Cols: 100}, price: 10},
		{name: "Huge cols", layout: &SeatLayout{Rows: 26, Cols: 1 << 58}, price: 100},
		{name: "Negative price", layout: &SeatLayout{Rows: 1, Cols: 1}, price: -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			seats, err := GenerateSeats(tc.layout, tc.price)
			assert.Nil(t, seats)
			assert.ErrorIs(t, err, ErrInvalidLayout)
			assert.Equal(t, KindInvalid, KindOf(err))
		})
	}
}

func TestGenerateSeats_MaxGrid(t *testing.T) {
	seats, err := GenerateSeats(&SeatLayout{Rows: 26, Cols: 99}, 10)

	require.NoError(t, err)
	assert.Len(t, seats, 26*99)
	assert.Equal(t, "Z99", seats[len(seats)-1].Label)
}

func TestSeatLabel(t *testing.T) {
	assert.Equal(t, "A1", SeatLabel(0, 0))
	assert.Equal(t, "B3", SeatLabel(1, 2))
	assert.Equal(t, "Z10", SeatLabel(25, 9))
}
