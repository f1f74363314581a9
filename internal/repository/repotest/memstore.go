// Package repotest provides an in-memory repository.Store for service tests.
//
// WithinTx holds a single store-wide mutex for the whole transaction, so
// concurrent transactions are fully serialized, which is a stricter version of
// the row locks the PostgreSQL store takes. A transaction whose callback returns
// an error has all of its writes rolled back.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/Domenick1991/ridebooking/internal/repository"
)

type state struct {
	trips        map[int64]domain.Trip
	seats        map[int64]domain.Seat
	bookings     map[int64]domain.Booking
	items        map[int64]domain.BookingItem
	transactions map[int64]domain.Transaction
	outbox       map[string]domain.OutboxMessage
	outboxOrder  []string
	nextID       int64
}

func newState() *state {
	return &state{
		trips:        make(map[int64]domain.Trip),
		seats:        make(map[int64]domain.Seat),
		bookings:     make(map[int64]domain.Booking),
		items:        make(map[int64]domain.BookingItem),
		transactions: make(map[int64]domain.Transaction),
		outbox:       make(map[string]domain.OutboxMessage),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.trips {
		c.trips[k] = v
	}
	for k, v := range s.seats {
		c.seats[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.outbox {
		c.outbox[k] = v
	}
	c.outboxOrder = append([]string(nil), s.outboxOrder...)
	c.nextID = s.nextID
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store is a repository.Store backed by maps.
type Store struct {
	mu  sync.Mutex
	st  *state
	Now func() time.Time

	// FailOutbox, when set, is returned by every Outbox.Enqueue call.
	FailOutbox error
}

func New() *Store {
	return &Store{st: newState(), Now: time.Now}
}

func (s *Store) Repos() repository.Repositories {
	return s.repos(false)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, r repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(ctx, s.repos(true)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) repos(inTx bool) repository.Repositories {
	m := &mem{store: s, inTx: inTx}
	return repository.Repositories{
		Trips:        &tripRepo{m},
		Seats:        &seatRepo{m},
		Bookings:     &bookingRepo{m},
		Transactions: &transactionRepo{m},
		Outbox:       &outboxRepo{m},
	}
}

// mem runs fn against the current state, taking the store lock unless the
// caller is already inside WithinTx.
type mem struct {
	store *Store
	inTx  bool
}

func (m *mem) do(fn func(st *state) error) error {
	if !m.inTx {
		m.store.mu.Lock()
		defer m.store.mu.Unlock()
	}
	return fn(m.store.st)
}

func (m *mem) now() time.Time {
	return m.store.Now()
}

// Snapshot accessors used by test assertions.

func (s *Store) Trip(id int64) (domain.Trip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.st.trips[id]
	return t, ok
}

func (s *Store) Seat(id int64) (domain.Seat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.st.seats[id]
	return seat, ok
}

func (s *Store) SeatsOfTrip(tripID int64) []domain.Seat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.seatsOfTrip(tripID)
}

func (s *Store) Booking(id int64) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.st.bookings[id]
	if ok {
		b.Items = s.st.itemsOf(id)
	}
	return b, ok
}

func (s *Store) Bookings() []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Booking, 0, len(s.st.bookings))
	for id, b := range s.st.bookings {
		b.Items = s.st.itemsOf(id)
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Transactions() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Transaction, 0, len(s.st.transactions))
	for _, t := range s.st.transactions {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) OutboxMessages() []domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OutboxMessage, 0, len(s.st.outboxOrder))
	for _, id := range s.st.outboxOrder {
		out = append(out, s.st.outbox[id])
	}
	return out
}

// SetTripStatus and SetDeparture let tests move a trip out of its bookable state.
func (s *Store) SetTripStatus(id int64, status domain.TripStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.st.trips[id]
	t.Status = status
	s.st.trips[id] = t
}

func (s *Store) SetDeparture(id int64, departure time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.st.trips[id]
	t.DepartureTime = departure
	s.st.trips[id] = t
}

func (s *state) seatsOfTrip(tripID int64) []domain.Seat {
	out := make([]domain.Seat, 0)
	for _, seat := range s.seats {
		if seat.TripID == tripID {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) itemsOf(bookingID int64) []domain.BookingItem {
	var out []domain.BookingItem
	for _, it := range s.items {
		if it.BookingID == bookingID {
			it.SeatLabel = s.seats[it.SeatID].Label
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatID < out[j].SeatID })
	return out
}

type tripRepo struct{ m *mem }

func (r *tripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	return r.m.do(func(st *state) error {
		now := r.m.now()
		trip.ID = st.id()
		trip.CreatedAt, trip.UpdatedAt = now, now
		st.trips[trip.ID] = *trip
		return nil
	})
}

func (r *tripRepo) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	var out *domain.Trip
	err := r.m.do(func(st *state) error {
		t, ok := st.trips[id]
		if !ok {
			return domain.ErrTripNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *tripRepo) LockByID(ctx context.Context, id int64) (*domain.Trip, error) {
	return r.GetByID(ctx, id)
}

func (r *tripRepo) AdjustAvailableSeats(ctx context.Context, id int64, delta int) error {
	return r.m.do(func(st *state) error {
		t, ok := st.trips[id]
		if !ok {
			return domain.ErrTripNotFound
		}
		t.AvailableSeats += delta
		t.UpdatedAt = r.m.now()
		st.trips[id] = t
		return nil
	})
}

func (r *tripRepo) Search(ctx context.Context, filter domain.TripFilter) ([]domain.Trip, error) {
	out := make([]domain.Trip, 0)
	day := filter.Date.UTC().Truncate(24 * time.Hour)
	err := r.m.do(func(st *state) error {
		for _, t := range st.trips {
			if !containsFold(t.Origin, filter.Origin) || !containsFold(t.Destination, filter.Destination) {
				continue
			}
			if t.DepartureTime.Before(day) || !t.DepartureTime.Before(day.Add(24*time.Hour)) {
				continue
			}
			if t.Status != domain.TripStatusScheduled || t.AvailableSeats <= 0 {
				continue
			}
			out = append(out, t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	return out, err
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

type seatRepo struct{ m *mem }

func (r *seatRepo) CreateBatch(ctx context.Context, tripID int64, seats []domain.Seat) ([]domain.Seat, error) {
	out := make([]domain.Seat, 0, len(seats))
	err := r.m.do(func(st *state) error {
		for _, seat := range seats {
			seat.ID = st.id()
			seat.TripID = tripID
			seat.Status = domain.SeatStatusAvailable
			st.seats[seat.ID] = seat
			out = append(out, seat)
		}
		return nil
	})
	return out, err
}

func (r *seatRepo) ListByTrip(ctx context.Context, tripID int64) ([]domain.Seat, error) {
	var out []domain.Seat
	err := r.m.do(func(st *state) error {
		out = st.seatsOfTrip(tripID)
		return nil
	})
	return out, err
}

func (r *seatRepo) LockForTrip(ctx context.Context, tripID int64, seatIDs []int64) ([]domain.Seat, error) {
	out := make([]domain.Seat, 0, len(seatIDs))
	err := r.m.do(func(st *state) error {
		for _, id := range seatIDs {
			if seat, ok := st.seats[id]; ok && seat.TripID == tripID {
				out = append(out, seat)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *seatRepo) Claim(ctx context.Context, seatIDs []int64, userID, bookingID int64) (int64, error) {
	var n int64
	err := r.m.do(func(st *state) error {
		for _, id := range seatIDs {
			seat, ok := st.seats[id]
			if !ok || !seat.Available() {
				continue
			}
			u, b := userID, bookingID
			seat.Status = domain.SeatStatusBooked
			seat.UserID, seat.BookingID = &u, &b
			st.seats[id] = seat
			n++
		}
		return nil
	})
	return n, err
}

func (r *seatRepo) Release(ctx context.Context, seatIDs []int64, bookingID int64) (int64, error) {
	var n int64
	err := r.m.do(func(st *state) error {
		for _, id := range seatIDs {
			seat, ok := st.seats[id]
			if !ok || seat.BookingID == nil || *seat.BookingID != bookingID {
				continue
			}
			seat.Status = domain.SeatStatusAvailable
			seat.UserID, seat.BookingID = nil, nil
			st.seats[id] = seat
			n++
		}
		return nil
	})
	return n, err
}

type bookingRepo struct{ m *mem }

func (r *bookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	return r.m.do(func(st *state) error {
		now := r.m.now()
		booking.ID = st.id()
		booking.CreatedAt, booking.UpdatedAt = now, now
		stored := *booking
		stored.Items, stored.Trip = nil, nil
		st.bookings[booking.ID] = stored
		return nil
	})
}

func (r *bookingRepo) AddItems(ctx context.Context, bookingID int64, items []domain.BookingItem) error {
	return r.m.do(func(st *state) error {
		for _, it := range items {
			it.ID = st.id()
			it.BookingID = bookingID
			st.items[it.ID] = it
		}
		return nil
	})
}

func (r *bookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.m.do(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return domain.ErrBookingNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *bookingRepo) LockByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *bookingRepo) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	return r.m.do(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return domain.ErrBookingNotFound
		}
		b.Status = status
		b.UpdatedAt = r.m.now()
		st.bookings[id] = b
		return nil
	})
}

func (r *bookingRepo) ListItems(ctx context.Context, bookingID int64) ([]domain.BookingItem, error) {
	var out []domain.BookingItem
	err := r.m.do(func(st *state) error {
		out = st.itemsOf(bookingID)
		return nil
	})
	return out, err
}

func (r *bookingRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0)
	err := r.m.do(func(st *state) error {
		for id, b := range st.bookings {
			if b.UserID != userID {
				continue
			}
			t := st.trips[b.TripID]
			b.Trip = &domain.TripSummary{
				Origin:               t.Origin,
				Destination:          t.Destination,
				DepartureTime:        t.DepartureTime,
				EstimatedArrivalTime: t.EstimatedArrivalTime,
			}
			b.Items = st.itemsOf(id)
			out = append(out, b)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

type transactionRepo struct{ m *mem }

func (r *transactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	return r.m.do(func(st *state) error {
		now := r.m.now()
		tx.ID = st.id()
		tx.CreatedAt, tx.UpdatedAt = now, now
		st.transactions[tx.ID] = *tx
		return nil
	})
}

func (r *transactionRepo) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	var out *domain.Transaction
	err := r.m.do(func(st *state) error {
		t, ok := st.transactions[id]
		if !ok {
			return domain.ErrTransactionNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *transactionRepo) LockByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *transactionRepo) MarkCompleted(ctx context.Context, id int64, gatewayRef string) error {
	return r.resolve(id, domain.TransactionStatusCompleted, &gatewayRef)
}

func (r *transactionRepo) MarkFailed(ctx context.Context, id int64) error {
	return r.resolve(id, domain.TransactionStatusFailed, nil)
}

func (r *transactionRepo) resolve(id int64, status domain.TransactionStatus, ref *string) error {
	return r.m.do(func(st *state) error {
		t, ok := st.transactions[id]
		if !ok || t.Resolved() {
			return domain.ErrTransactionAlreadyResolved
		}
		t.Status = status
		t.GatewayTransactionID = ref
		t.UpdatedAt = r.m.now()
		st.transactions[id] = t
		return nil
	})
}

func (r *transactionRepo) FailPendingForBooking(ctx context.Context, bookingID int64) (int64, error) {
	var n int64
	err := r.m.do(func(st *state) error {
		for id, t := range st.transactions {
			if t.BookingID == bookingID && !t.Resolved() {
				t.Status = domain.TransactionStatusFailed
				t.UpdatedAt = r.m.now()
				st.transactions[id] = t
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *transactionRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Transaction, error) {
	all := make([]domain.Transaction, 0)
	err := r.m.do(func(st *state) error {
		for _, t := range st.transactions {
			if t.UserID == userID {
				all = append(all, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if offset >= len(all) {
		return []domain.Transaction{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (r *transactionRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.m.do(func(st *state) error {
		for _, t := range st.transactions {
			if t.UserID == userID {
				n++
			}
		}
		return nil
	})
	return n, err
}

type outboxRepo struct{ m *mem }

func (r *outboxRepo) Enqueue(ctx context.Context, msg *domain.OutboxMessage) error {
	if err := r.m.store.FailOutbox; err != nil {
		return err
	}
	return r.m.do(func(st *state) error {
		if _, exists := st.outbox[msg.ID]; !exists {
			st.outboxOrder = append(st.outboxOrder, msg.ID)
		}
		st.outbox[msg.ID] = *msg
		return nil
	})
}

func (r *outboxRepo) FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	return r.fetch(limit, func(m domain.OutboxMessage) bool { return m.Status == domain.OutboxStatusPending })
}

func (r *outboxRepo) FetchRetryable(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	return r.fetch(limit, func(m domain.OutboxMessage) bool {
		return m.Status == domain.OutboxStatusFailed && m.CanRetry()
	})
}

func (r *outboxRepo) fetch(limit int, match func(domain.OutboxMessage) bool) ([]domain.OutboxMessage, error) {
	out := make([]domain.OutboxMessage, 0)
	err := r.m.do(func(st *state) error {
		for _, id := range st.outboxOrder {
			if len(out) == limit {
				break
			}
			if m := st.outbox[id]; match(m) {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

func (r *outboxRepo) MarkPublished(ctx context.Context, id string) error {
	return r.m.do(func(st *state) error {
		m := st.outbox[id]
		now := r.m.now()
		m.Status = domain.OutboxStatusPublished
		m.PublishedAt = &now
		st.outbox[id] = m
		return nil
	})
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.m.do(func(st *state) error {
		m := st.outbox[id]
		m.Status = domain.OutboxStatusFailed
		m.RetryCount++
		m.LastError = reason
		st.outbox[id] = m
		return nil
	})
}

var _ repository.Store = (*Store)(nil)
