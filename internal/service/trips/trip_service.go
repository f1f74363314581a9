package trips

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/Domenick1991/ridebooking/internal/repository"
	"github.com/Domenick1991/ridebooking/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tracerName = "ridebooking/service/trips"

type TripUseCase interface {
	CreateTrip(ctx context.Context, input CreateTripInput) (*domain.TripWithSeats, error)
	GetTrip(ctx context.Context, id int64) (*domain.TripWithSeats, error)
	SearchTrips(ctx context.Context, filter domain.TripFilter) ([]domain.Trip, error)
}

// SeatMapCache stores the read model served by GetTrip.
type SeatMapCache interface {
	GetTripSeats(ctx context.Context, tripID int64) (*domain.TripWithSeats, error)
	SetTripSeats(ctx context.Context, trip *domain.TripWithSeats) error
}

type CreateTripInput struct {
	Origin               string             `json:"origin"`
	Destination          string             `json:"destination"`
	DepartureTime        time.Time          `json:"departure_time"`
	EstimatedArrivalTime time.Time          `json:"estimated_arrival_time"`
	BaseSeatPriceCents   int64              `json:"base_seat_price_cents"`
	Notes                string             `json:"notes"`
	Layout               *domain.SeatLayout `json:"seat_layout"`
}

type TripService struct {
	store  repository.Store
	cache  SeatMapCache
	logger *zap.Logger
	now    func() time.Time
}

type TripServiceOption func(*TripService)

func WithLogger(logger *zap.Logger) TripServiceOption {
	return func(s *TripService) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) TripServiceOption {
	return func(s *TripService) {
		s.now = now
	}
}

// NewTripService builds the service; cache may be nil.
func NewTripService(store repository.Store, cache SeatMapCache, opts ...TripServiceOption) *TripService {
	s := &TripService{store: store, cache: cache, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TripService) CreateTrip(ctx context.Context, input CreateTripInput) (_ *domain.TripWithSeats, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "TripService.CreateTrip")
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.validate(input); err != nil {
		return nil, err
	}
	seats, err := domain.GenerateSeats(input.Layout, input.BaseSeatPriceCents)
	if err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		Origin:               strings.TrimSpace(input.Origin),
		Destination:          strings.TrimSpace(input.Destination),
		DepartureTime:        input.DepartureTime.UTC(),
		EstimatedArrivalTime: input.EstimatedArrivalTime.UTC(),
		BaseSeatPriceCents:   input.BaseSeatPriceCents,
		Status:               domain.TripStatusScheduled,
		AvailableSeats:       len(seats),
		Notes:                input.Notes,
	}

	var created []domain.Seat
	err = s.store.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		if err := r.Trips.Create(ctx, trip); err != nil {
			return err
		}
		batch, err := r.Seats.CreateBatch(ctx, trip.ID, seats)
		if err != nil {
			return err
		}
		created = batch
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create trip", zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int64("trip.id", trip.ID), attribute.Int("trip.seats", len(created)))
	s.logger.Info("trip created",
		zap.Int64("trip_id", trip.ID),
		zap.String("origin", trip.Origin),
		zap.String("destination", trip.Destination),
		zap.Int("seats", len(created)),
	)
	return &domain.TripWithSeats{Trip: *trip, Seats: created}, nil
}

func (s *TripService) validate(input CreateTripInput) error {
	switch {
	case strings.TrimSpace(input.Origin) == "" || strings.TrimSpace(input.Destination) == "":
		return domain.InvalidInput("origin and destination are required")
	case input.DepartureTime.IsZero() || input.EstimatedArrivalTime.IsZero():
		return domain.InvalidInput("departure and estimated arrival times are required")
	case !input.EstimatedArrivalTime.After(input.DepartureTime):
		return domain.InvalidInput("estimated arrival must be after departure")
	case !input.DepartureTime.After(s.now()):
		return domain.InvalidInput("departure must be in the future")
	}
	return nil
}

// GetTrip serves the seat map from the cache when possible. Cache errors only
// cost a database round trip.
func (s *TripService) GetTrip(ctx context.Context, id int64) (_ *domain.TripWithSeats, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "TripService.GetTrip", attribute.Int64("trip.id", id))
	defer func() { telemetry.EndSpan(span, err) }()

	if s.cache != nil {
		cached, err := s.cache.GetTripSeats(ctx, id)
		if err != nil {
			s.logger.Warn("seat map cache read failed", zap.Int64("trip_id", id), zap.Error(err))
		} else if cached != nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}

	repos := s.store.Repos()
	trip, err := repos.Trips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	seats, err := repos.Seats.ListByTrip(ctx, id)
	if err != nil {
		return nil, err
	}
	result := &domain.TripWithSeats{Trip: *trip, Seats: seats}

	if s.cache != nil {
		if err := s.cache.SetTripSeats(ctx, result); err != nil {
			s.logger.Warn("seat map cache write failed", zap.Int64("trip_id", id), zap.Error(err))
		}
	}
	return result, nil
}

func (s *TripService) SearchTrips(ctx context.Context, filter domain.TripFilter) (_ []domain.Trip, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "TripService.SearchTrips",
		attribute.String("trip.origin", filter.Origin),
		attribute.String("trip.destination", filter.Destination),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if filter.Date.IsZero() {
		return nil, domain.InvalidInput("date is required")
	}
	return s.store.Repos().Trips.Search(ctx, filter)
}

var _ TripUseCase = (*TripService)(nil)
