package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/ridebooking/config"
	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps the seat map of recently viewed trips. Entries are a read
// optimization only: booking and cancellation never consult them, and drop the
// entry of the affected trip once their transaction has committed.
type RedisCache struct {
	client     redis.UniversalClient
	seatMapTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, seatMapTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		seatMapTTL,
	)
}

func NewRedisCacheWithClient(client redis.UniversalClient, seatMapTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, seatMapTTL: seatMapTTL}
}

// GetTripSeats returns nil without error on a cache miss.
func (c *RedisCache) GetTripSeats(ctx context.Context, tripID int64) (*domain.TripWithSeats, error) {
	data, err := c.client.Get(ctx, seatMapKey(tripID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var trip domain.TripWithSeats
	if err := json.Unmarshal(data, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

func (c *RedisCache) SetTripSeats(ctx context.Context, trip *domain.TripWithSeats) error {
	payload, err := json.Marshal(trip)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, seatMapKey(trip.Trip.ID), payload, c.seatMapTTL).Err()
}

func (c *RedisCache) InvalidateTrip(ctx context.Context, tripID int64) error {
	return c.client.Del(ctx, seatMapKey(tripID)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func seatMapKey(tripID int64) string {
	return fmt.Sprintf("cache:trip:%d:seats", tripID)
}
