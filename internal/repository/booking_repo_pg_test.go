package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGBookingRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	booking := &domain.Booking{UserID: 3, TripID: 10, TotalAmountCents: 100, Status: domain.BookingStatusPendingPayment}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(int64(3), int64(10), int64(100), domain.BookingStatusPendingPayment).
		WillReturnRows(pgxmock.NewRows([]string{"id", "booking_time", "updated_at"}).AddRow(int64(7), fixedNow, fixedNow))

	err = NewBookingRepository(mock).Create(context.Background(), booking)

	require.NoError(t, err)
	assert.Equal(t, int64(7), booking.ID)
	assert.Equal(t, fixedNow, booking.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGBookingRepository_AddItems(t *testing.T) {
	items := []domain.BookingItem{
		{SeatID: 1, PriceAtBookingCents: 50},
		{SeatID: 2, PriceAtBookingCents: 80},
	}

	testCases := []struct {
		name     string
		affected int64
		wantErr  bool
	}{
		{name: "Success", affected: 2},
		{name: "Row count mismatch", affected: 1, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_items")).
				WithArgs(int64(7), []int64{1, 2}, []int64{50, 80}).
				WillReturnResult(pgxmock.NewResult("INSERT", tc.affected))

			err = NewBookingRepository(mock).AddItems(context.Background(), 7, items)

			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPGBookingRepository_LockByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	booking, err := NewBookingRepository(mock).LockByID(context.Background(), 404)

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestPGBookingRepository_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $1")).
		WithArgs(domain.BookingStatusConfirmed, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = NewBookingRepository(mock).UpdateStatus(context.Background(), 7, domain.BookingStatusConfirmed)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGBookingRepository_ListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	departure := fixedNow.Add(48 * time.Hour)
	arrival := departure.Add(6 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.user_id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(append(append([]string{}, bookingCols...),
			"origin_location", "destination_location", "departure_time", "estimated_arrival_time")).
			AddRow(int64(8), int64(3), int64(10), int64(80), domain.BookingStatusConfirmed, fixedNow, fixedNow,
				"Tehran", "Isfahan", departure, arrival).
			AddRow(int64(7), int64(3), int64(10), int64(50), domain.BookingStatusCancelledByUser, fixedNow.Add(-time.Hour), fixedNow,
				"Tehran", "Isfahan", departure, arrival))
	mock.ExpectQuery(regexp.QuoteMeta("FROM booking_items bi")).
		WithArgs([]int64{8, 7}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "booking_id", "seat_id", "seat_number", "price_at_booking_cents"}).
			AddRow(int64(2), int64(7), int64(1), "A1", int64(50)).
			AddRow(int64(3), int64(8), int64(2), "A2", int64(80)))

	bookings, err := NewBookingRepository(mock).ListByUser(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, int64(8), bookings[0].ID)
	require.NotNil(t, bookings[0].Trip)
	assert.Equal(t, "Isfahan", bookings[0].Trip.Destination)
	require.Len(t, bookings[0].Items, 1)
	assert.Equal(t, "A2", bookings[0].Items[0].SeatLabel)
	require.Len(t, bookings[1].Items, 1)
	assert.Equal(t, int64(1), bookings[1].Items[0].SeatID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGBookingRepository_ListByUser_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.user_id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(append(append([]string{}, bookingCols...),
			"origin_location", "destination_location", "departure_time", "estimated_arrival_time")))

	bookings, err := NewBookingRepository(mock).ListByUser(context.Background(), 3)

	require.NoError(t, err)
	assert.NotNil(t, bookings)
	assert.Empty(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}
