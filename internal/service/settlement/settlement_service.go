package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/Domenick1991/ridebooking/internal/repository"
	"github.com/Domenick1991/ridebooking/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	tracerName = "ridebooking/service/settlement"

	DefaultGateway = "mock_gateway"

	defaultPageSize = 10
	maxPageSize     = 100
)

type SettlementUseCase interface {
	RequestPayment(ctx context.Context, userID, bookingID int64, gateway string) (*domain.PaymentRequest, error)
	ResolvePayment(ctx context.Context, transactionID int64, outcome domain.PaymentOutcome) (*domain.PaymentResult, error)
	ListTransactions(ctx context.Context, userID int64, page, limit int) (*domain.TransactionPage, error)
	GetTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error)
}

type SettlementService struct {
	store          repository.Store
	eventsTopic    string
	callbackURL    string
	defaultGateway string
	logger         *zap.Logger
	now            func() time.Time
	newReference   func() string
}

type SettlementServiceOption func(*SettlementService)

func WithLogger(logger *zap.Logger) SettlementServiceOption {
	return func(s *SettlementService) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) SettlementServiceOption {
	return func(s *SettlementService) {
		s.now = now
	}
}

func WithDefaultGateway(gateway string) SettlementServiceOption {
	return func(s *SettlementService) {
		if gateway != "" {
			s.defaultGateway = gateway
		}
	}
}

// WithReferenceGenerator replaces the generator of gateway references for completed payments.
func WithReferenceGenerator(gen func() string) SettlementServiceOption {
	return func(s *SettlementService) {
		s.newReference = gen
	}
}

func NewSettlementService(store repository.Store, eventsTopic, callbackURL string, opts ...SettlementServiceOption) *SettlementService {
	s := &SettlementService{
		store:          store,
		eventsTopic:    eventsTopic,
		callbackURL:    callbackURL,
		defaultGateway: DefaultGateway,
		logger:         zap.NewNop(),
		now:            time.Now,
		newReference:   mockReference,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func mockReference() string {
	return "mock-tx-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// RequestPayment opens a pending transaction for a booking that awaits payment.
// Pending transactions opened earlier for the same booking are superseded.
// Like ResolvePayment it locks the booking row before any transaction row.
func (s *SettlementService) RequestPayment(ctx context.Context, userID, bookingID int64, gateway string) (_ *domain.PaymentRequest, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "SettlementService.RequestPayment",
		attribute.Int64("user.id", userID),
		attribute.Int64("booking.id", bookingID),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if bookingID <= 0 {
		return nil, domain.InvalidInput("booking id must be positive")
	}
	if gateway == "" {
		gateway = s.defaultGateway
	}

	var tx *domain.Transaction
	err = s.store.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		booking, err := r.Bookings.LockByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking.UserID != userID {
			return domain.ErrForbidden
		}
		if booking.Status != domain.BookingStatusPendingPayment {
			return domain.BookingNotPayable(booking.Status)
		}

		superseded, err := r.Transactions.FailPendingForBooking(ctx, booking.ID)
		if err != nil {
			return err
		}
		if superseded > 0 {
			s.logger.Info("superseded pending transactions",
				zap.Int64("booking_id", booking.ID),
				zap.Int64("count", superseded),
			)
		}

		t := &domain.Transaction{
			UserID:      userID,
			BookingID:   booking.ID,
			AmountCents: booking.TotalAmountCents,
			Type:        domain.TransactionTypeBookingPayment,
			Status:      domain.TransactionStatusPending,
			Gateway:     gateway,
			Description: fmt.Sprintf("Payment for booking #%d", booking.ID),
		}
		if err := r.Transactions.Create(ctx, t); err != nil {
			return err
		}
		if err := s.enqueue(ctx, r, domain.EventPaymentRequested, booking, t); err != nil {
			return err
		}
		tx = t
		return nil
	})
	if err != nil {
		s.logFailure("payment request rejected", err, zap.Int64("user_id", userID), zap.Int64("booking_id", bookingID))
		return nil, err
	}

	s.logger.Info("payment requested",
		zap.Int64("transaction_id", tx.ID),
		zap.Int64("booking_id", tx.BookingID),
		zap.Int64("amount_cents", tx.AmountCents),
		zap.String("gateway", tx.Gateway),
	)
	return &domain.PaymentRequest{PaymentURL: s.paymentURL(tx.ID), TransactionID: tx.ID}, nil
}

func (s *SettlementService) paymentURL(transactionID int64) string {
	sep := "?"
	if strings.Contains(s.callbackURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%stransaction_id=%d&mock=true", s.callbackURL, sep, transactionID)
}

// ResolvePayment applies the gateway outcome to a pending transaction. A success
// confirms the booking; a failure leaves the booking awaiting payment with its
// seats still claimed. A success that arrives after the booking stopped awaiting
// payment fails the transaction instead.
func (s *SettlementService) ResolvePayment(ctx context.Context, transactionID int64, outcome domain.PaymentOutcome) (_ *domain.PaymentResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "SettlementService.ResolvePayment",
		attribute.Int64("transaction.id", transactionID),
		attribute.String("payment.outcome", string(outcome)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if !outcome.Valid() {
		return nil, domain.InvalidInput("unknown payment status %q", outcome)
	}

	var result domain.PaymentResult
	err = s.store.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		// Lock order is Booking then Transaction, the same as RequestPayment.
		current, err := r.Transactions.GetByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if current.Resolved() {
			return domain.TransactionAlreadyResolved(current.Status)
		}
		booking, err := r.Bookings.LockByID(ctx, current.BookingID)
		if err != nil {
			return err
		}
		tx, err := r.Transactions.LockByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx.Resolved() {
			return domain.TransactionAlreadyResolved(tx.Status)
		}
		result.BookingID = booking.ID

		if outcome == domain.PaymentOutcomeFailure || booking.Status != domain.BookingStatusPendingPayment {
			if outcome == domain.PaymentOutcomeSuccess {
				s.logger.Warn("payment succeeded for a booking that no longer awaits payment",
					zap.Int64("transaction_id", tx.ID),
					zap.Int64("booking_id", booking.ID),
					zap.String("booking_status", string(booking.Status)),
				)
			}
			if err := r.Transactions.MarkFailed(ctx, tx.ID); err != nil {
				return err
			}
			tx.Status = domain.TransactionStatusFailed
			return s.enqueue(ctx, r, domain.EventPaymentFailed, booking, tx)
		}

		ref := s.newReference()
		if err := r.Transactions.MarkCompleted(ctx, tx.ID, ref); err != nil {
			return err
		}
		if err := r.Bookings.UpdateStatus(ctx, booking.ID, domain.BookingStatusConfirmed); err != nil {
			return err
		}
		booking.Status = domain.BookingStatusConfirmed
		tx.Status = domain.TransactionStatusCompleted
		tx.GatewayTransactionID = &ref
		result.Success = true
		return s.enqueue(ctx, r, domain.EventPaymentCompleted, booking, tx)
	})
	if err != nil {
		s.logFailure("payment resolution rejected", err, zap.Int64("transaction_id", transactionID))
		return nil, err
	}

	span.SetAttributes(attribute.Bool("payment.success", result.Success))
	s.logger.Info("payment resolved",
		zap.Int64("transaction_id", transactionID),
		zap.Int64("booking_id", result.BookingID),
		zap.Bool("success", result.Success),
	)
	return &result, nil
}

func (s *SettlementService) ListTransactions(ctx context.Context, userID int64, page, limit int) (_ *domain.TransactionPage, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "SettlementService.ListTransactions", attribute.Int64("user.id", userID))
	defer func() { telemetry.EndSpan(span, err) }()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	repos := s.store.Repos()
	total, err := repos.Transactions.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	txs, err := repos.Transactions.ListByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return &domain.TransactionPage{
		Transactions:      txs,
		TotalPages:        (total + limit - 1) / limit,
		CurrentPage:       page,
		TotalTransactions: total,
	}, nil
}

func (s *SettlementService) GetTransaction(ctx context.Context, transactionID int64) (_ *domain.Transaction, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "SettlementService.GetTransaction", attribute.Int64("transaction.id", transactionID))
	defer func() { telemetry.EndSpan(span, err) }()

	return s.store.Repos().Transactions.GetByID(ctx, transactionID)
}

func (s *SettlementService) enqueue(ctx context.Context, r repository.Repositories, eventType domain.EventType, b *domain.Booking, tx *domain.Transaction) error {
	if s.eventsTopic == "" {
		return nil
	}
	msg, err := domain.NewOutboxMessage(s.eventsTopic, domain.BookingEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		BookingID:     b.ID,
		UserID:        b.UserID,
		TripID:        b.TripID,
		AmountCents:   tx.AmountCents,
		Status:        b.Status,
		TransactionID: tx.ID,
		OccurredAt:    s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	return r.Outbox.Enqueue(ctx, msg)
}

func (s *SettlementService) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if domain.KindOf(err) == domain.KindUnknown {
		s.logger.Error(msg, fields...)
		return
	}
	s.logger.Info(msg, append(fields, zap.Stringer("kind", domain.KindOf(err)))...)
}

var _ SettlementUseCase = (*SettlementService)(nil)
