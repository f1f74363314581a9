package settlement

import (
	"context"
	"sync"
	"testing"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/Domenick1991/ridebooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockLog records which rows a transaction locks, in order.
type lockLog struct {
	mu    sync.Mutex
	locks []string
}

func (l *lockLog) add(row string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locks = append(l.locks, row)
}

func (l *lockLog) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.locks
	l.locks = nil
	return out
}

type lockRecordingStore struct {
	repository.Store
	log *lockLog
}

func (s lockRecordingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, r repository.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		r.Bookings = lockRecordingBookings{BookingRepository: r.Bookings, log: s.log}
		r.Transactions = lockRecordingTransactions{TransactionRepository: r.Transactions, log: s.log}
		return fn(ctx, r)
	})
}

type lockRecordingBookings struct {
	repository.BookingRepository
	log *lockLog
}

func (b lockRecordingBookings) LockByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b.log.add("booking")
	return b.BookingRepository.LockByID(ctx, id)
}

type lockRecordingTransactions struct {
	repository.TransactionRepository
	log *lockLog
}

func (t lockRecordingTransactions) LockByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	t.log.add("transaction")
	return t.TransactionRepository.LockByID(ctx, id)
}

// FailPendingForBooking updates, and so locks, the pending transaction rows of a booking.
func (t lockRecordingTransactions) FailPendingForBooking(ctx context.Context, bookingID int64) (int64, error) {
	t.log.add("transaction")
	return t.TransactionRepository.FailPendingForBooking(ctx, bookingID)
}

func TestSettlementService_LockOrder(t *testing.T) {
	for _, outcome := range []domain.PaymentOutcome{domain.PaymentOutcomeSuccess, domain.PaymentOutcomeFailure} {
		t.Run(string(outcome), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			log := &lockLog{}
			svc := NewSettlementService(lockRecordingStore{Store: f.store, log: log}, eventsTopic, callbackURL)
			b := f.book(t, 3, f.seats[0])

			req, err := svc.RequestPayment(ctx, 3, b.ID, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"booking", "transaction"}, log.take())

			_, err = svc.ResolvePayment(ctx, req.TransactionID, outcome)
			require.NoError(t, err)
			assert.Equal(t, []string{"booking", "transaction"}, log.take())
		})
	}
}

func TestSettlementService_ResolvePayment_ResolvedBeforeLocking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	log := &lockLog{}
	svc := NewSettlementService(lockRecordingStore{Store: f.store, log: log}, eventsTopic, callbackURL)
	b := f.book(t, 3, f.seats[0])
	req, err := svc.RequestPayment(ctx, 3, b.ID, "")
	require.NoError(t, err)
	_, err = svc.ResolvePayment(ctx, req.TransactionID, domain.PaymentOutcomeFailure)
	require.NoError(t, err)
	log.take()

	_, err = svc.ResolvePayment(ctx, req.TransactionID, domain.PaymentOutcomeSuccess)

	assert.ErrorIs(t, err, domain.ErrTransactionAlreadyResolved)
	assert.Empty(t, log.take())
}
