package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}), ttl)
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestRedisCache_SeatMapRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	miss, err := c.GetTripSeats(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, miss)

	bookingID := int64(7)
	trip := &domain.TripWithSeats{
		Trip: domain.Trip{ID: 10, Origin: "Tehran", Destination: "Isfahan", Status: domain.TripStatusScheduled, AvailableSeats: 1},
		Seats: []domain.Seat{
			{ID: 1, TripID: 10, Label: "A1", PriceCents: 50, Status: domain.SeatStatusAvailable},
			{ID: 2, TripID: 10, Label: "A2", PriceCents: 50, Status: domain.SeatStatusBooked, BookingID: &bookingID},
		},
	}
	require.NoError(t, c.SetTripSeats(ctx, trip))

	got, err := c.GetTripSeats(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Isfahan", got.Trip.Destination)
	require.Len(t, got.Seats, 2)
	assert.Equal(t, domain.SeatStatusBooked, got.Seats[1].Status)
	assert.Equal(t, int64(7), *got.Seats[1].BookingID)
}

func TestRedisCache_InvalidateTrip(t *testing.T) {
	c, srv := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetTripSeats(ctx, &domain.TripWithSeats{Trip: domain.Trip{ID: 10}}))
	require.NoError(t, c.SetTripSeats(ctx, &domain.TripWithSeats{Trip: domain.Trip{ID: 11}}))
	assert.True(t, srv.Exists(seatMapKey(10)))

	require.NoError(t, c.InvalidateTrip(ctx, 10))

	assert.False(t, srv.Exists(seatMapKey(10)))
	assert.True(t, srv.Exists(seatMapKey(11)))
}

func TestRedisCache_Expiry(t *testing.T) {
	c, srv := newTestCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, c.SetTripSeats(ctx, &domain.TripWithSeats{Trip: domain.Trip{ID: 10}}))
	srv.FastForward(31 * time.Second)

	got, err := c.GetTripSeats(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	c, srv := newTestCache(t, time.Minute)

	require.NoError(t, srv.Set(seatMapKey(10), "{not json"))

	_, err := c.GetTripSeats(context.Background(), 10)
	assert.Error(t, err)
}
