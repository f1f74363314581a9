package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/Domenick1991/ridebooking/internal/repository"
	"github.com/Domenick1991/ridebooking/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	tracerName = "ridebooking/service/booking"

	defaultCancellationWindow = 24 * time.Hour
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBookingsForUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID int64) (*domain.Booking, error)
}

// Cache is the part of the seat map cache that booking changes make stale.
type Cache interface {
	InvalidateTrip(ctx context.Context, tripID int64) error
}

type BookingService struct {
	store              repository.Store
	cache              Cache
	logger             *zap.Logger
	now                func() time.Time
	eventsTopic        string
	cancellationWindow time.Duration
}

type CreateBookingInput struct {
	UserID  int64   `json:"-"`
	TripID  int64   `json:"trip_id"`
	SeatIDs []int64 `json:"seat_ids"`
}

type BookingServiceOption func(*BookingService)

func WithLogger(logger *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

// WithCancellationWindow sets how long before departure a booking can still be cancelled.
func WithCancellationWindow(window time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if window > 0 {
			s.cancellationWindow = window
		}
	}
}

func NewBookingService(store repository.Store, cache Cache, eventsTopic string, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		store:              store,
		cache:              cache,
		logger:             zap.NewNop(),
		now:                time.Now,
		eventsTopic:        eventsTopic,
		cancellationWindow: defaultCancellationWindow,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking claims the requested seats of a trip for the user and leaves the
// booking awaiting payment. The trip row is locked before the seat rows.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (_ *domain.Booking, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "BookingService.CreateBooking",
		attribute.Int64("user.id", input.UserID),
		attribute.Int64("trip.id", input.TripID),
		attribute.Int("seats.count", len(input.SeatIDs)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	var booking *domain.Booking
	err = s.store.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		trip, err := r.Trips.LockByID(ctx, input.TripID)
		if err != nil {
			return err
		}
		if !trip.Bookable() {
			return domain.TripNotBookable(trip.Status)
		}

		seats, err := r.Seats.LockForTrip(ctx, trip.ID, input.SeatIDs)
		if err != nil {
			return err
		}
		if len(seats) != len(input.SeatIDs) {
			return domain.SeatNotInTrip(missingSeat(input.SeatIDs, seats), trip.ID)
		}

		items := make([]domain.BookingItem, 0, len(seats))
		var total int64
		for _, seat := range seats {
			if !seat.Available() {
				return domain.SeatUnavailable(seat.Label, seat.Status)
			}
			total += seat.PriceCents
			items = append(items, domain.BookingItem{
				SeatID:              seat.ID,
				SeatLabel:           seat.Label,
				PriceAtBookingCents: seat.PriceCents,
			})
		}

		b := &domain.Booking{
			UserID:           input.UserID,
			TripID:           trip.ID,
			TotalAmountCents: total,
			Status:           domain.BookingStatusPendingPayment,
		}
		if err := r.Bookings.Create(ctx, b); err != nil {
			return err
		}
		for i := range items {
			items[i].BookingID = b.ID
		}
		if err := r.Bookings.AddItems(ctx, b.ID, items); err != nil {
			return err
		}
		b.Items = items

		claimed, err := r.Seats.Claim(ctx, b.SeatIDs(), input.UserID, b.ID)
		if err != nil {
			return err
		}
		if claimed != int64(len(items)) {
			return fmt.Errorf("claimed %d of %d locked seats for booking %d", claimed, len(items), b.ID)
		}
		if err := r.Trips.AdjustAvailableSeats(ctx, trip.ID, -len(items)); err != nil {
			return err
		}
		if err := s.enqueue(ctx, r, domain.EventBookingCreated, b); err != nil {
			return err
		}

		booking = b
		return nil
	})
	if err != nil {
		s.logDomainFailure("booking rejected", err,
			zap.Int64("user_id", input.UserID),
			zap.Int64("trip_id", input.TripID),
			zap.Int64s("seat_ids", input.SeatIDs),
		)
		return nil, err
	}

	s.invalidate(ctx, booking.TripID)
	span.SetAttributes(attribute.Int64("booking.id", booking.ID))
	s.logger.Info("booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("user_id", booking.UserID),
		zap.Int64("trip_id", booking.TripID),
		zap.Int64("total_amount_cents", booking.TotalAmountCents),
	)
	return booking, nil
}

func validateCreateInput(input CreateBookingInput) error {
	if input.UserID <= 0 {
		return domain.InvalidInput("user id must be positive")
	}
	if input.TripID <= 0 {
		return domain.InvalidInput("trip id must be positive")
	}
	if len(input.SeatIDs) == 0 {
		return domain.InvalidInput("at least one seat must be selected")
	}
	seen := make(map[int64]struct{}, len(input.SeatIDs))
	for _, id := range input.SeatIDs {
		if id <= 0 {
			return domain.InvalidInput("seat id %d is not valid", id)
		}
		if _, dup := seen[id]; dup {
			return domain.InvalidInput("seat %d is selected more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// missingSeat returns the first requested id that the lock query did not return.
func missingSeat(requested []int64, found []domain.Seat) int64 {
	present := make(map[int64]struct{}, len(found))
	for _, seat := range found {
		present[seat.ID] = struct{}{}
	}
	for _, id := range requested {
		if _, ok := present[id]; !ok {
			return id
		}
	}
	return 0
}

func (s *BookingService) GetBookingsForUser(ctx context.Context, userID int64) (_ []domain.Booking, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "BookingService.GetBookingsForUser", attribute.Int64("user.id", userID))
	defer func() { telemetry.EndSpan(span, err) }()

	return s.store.Repos().Bookings.ListByUser(ctx, userID)
}

// CancelBooking releases the seats of a pending or confirmed booking owned by the
// user, as long as departure is at least the cancellation window away.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID int64) (_ *domain.Booking, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "BookingService.CancelBooking",
		attribute.Int64("user.id", userID),
		attribute.Int64("booking.id", bookingID),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	var cancelled *domain.Booking
	var released int64
	err = s.store.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		b, err := r.Bookings.LockByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return domain.ErrForbidden
		}
		if !b.Status.HoldsSeats() {
			return domain.BookingNotCancellable(b.Status)
		}

		trip, err := r.Trips.GetByID(ctx, b.TripID)
		if err != nil {
			return err
		}
		if trip.UntilDeparture(s.now()) < s.cancellationWindow {
			return domain.ErrCancellationWindowClosed
		}

		// available_seats is only written under the trip lock.
		if _, err := r.Trips.LockByID(ctx, b.TripID); err != nil {
			return err
		}
		if err := r.Bookings.UpdateStatus(ctx, b.ID, domain.BookingStatusCancelledByUser); err != nil {
			return err
		}
		b.Status = domain.BookingStatusCancelledByUser

		items, err := r.Bookings.ListItems(ctx, b.ID)
		if err != nil {
			return err
		}
		b.Items = items
		if len(items) > 0 {
			released, err = r.Seats.Release(ctx, b.SeatIDs(), b.ID)
			if err != nil {
				return err
			}
			if err := r.Trips.AdjustAvailableSeats(ctx, b.TripID, int(released)); err != nil {
				return err
			}
		}
		if err := s.enqueue(ctx, r, domain.EventBookingCancelled, b); err != nil {
			return err
		}

		cancelled = b
		return nil
	})
	if err != nil {
		s.logDomainFailure("cancellation rejected", err,
			zap.Int64("user_id", userID),
			zap.Int64("booking_id", bookingID),
		)
		return nil, err
	}

	s.invalidate(ctx, cancelled.TripID)
	s.logger.Info("booking cancelled",
		zap.Int64("booking_id", cancelled.ID),
		zap.Int64("trip_id", cancelled.TripID),
		zap.Int64("seats_released", released),
	)
	return cancelled, nil
}

func (s *BookingService) enqueue(ctx context.Context, r repository.Repositories, eventType domain.EventType, b *domain.Booking) error {
	if s.eventsTopic == "" {
		return nil
	}
	msg, err := domain.NewOutboxMessage(s.eventsTopic, domain.BookingEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		BookingID:   b.ID,
		UserID:      b.UserID,
		TripID:      b.TripID,
		SeatIDs:     b.SeatIDs(),
		AmountCents: b.TotalAmountCents,
		Status:      b.Status,
		OccurredAt:  s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	return r.Outbox.Enqueue(ctx, msg)
}

// invalidate runs after commit; a stale entry expires with its TTL anyway.
func (s *BookingService) invalidate(ctx context.Context, tripID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTrip(ctx, tripID); err != nil {
		s.logger.Warn("failed to invalidate seat map cache", zap.Int64("trip_id", tripID), zap.Error(err))
	}
}

func (s *BookingService) logDomainFailure(msg string, err error, fields ...zap.Field) {
	kind := domain.KindOf(err)
	fields = append(fields, zap.Error(err), zap.Stringer("kind", kind))
	if kind == domain.KindUnknown {
		s.logger.Error(msg, fields...)
		return
	}
	s.logger.Info(msg, fields...)
}

var _ BookingUseCase = (*BookingService)(nil)
