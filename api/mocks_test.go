package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/Domenick1991/ridebooking/internal/service/booking"
	"github.com/Domenick1991/ridebooking/internal/service/trips"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBookingsForUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, userID, bookingID int64) (*domain.Booking, error) {
	args := m.Called(ctx, userID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockTripUseCase struct {
	mock.Mock
}

func (m *MockTripUseCase) CreateTrip(ctx context.Context, input trips.CreateTripInput) (*domain.TripWithSeats, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TripWithSeats), args.Error(1)
}

func (m *MockTripUseCase) GetTrip(ctx context.Context, id int64) (*domain.TripWithSeats, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TripWithSeats), args.Error(1)
}

func (m *MockTripUseCase) SearchTrips(ctx context.Context, filter domain.TripFilter) ([]domain.Trip, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Trip), args.Error(1)
}

type MockSettlementUseCase struct {
	mock.Mock
}

func (m *MockSettlementUseCase) RequestPayment(ctx context.Context, userID, bookingID int64, gateway string) (*domain.PaymentRequest, error) {
	args := m.Called(ctx, userID, bookingID, gateway)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRequest), args.Error(1)
}

func (m *MockSettlementUseCase) ResolvePayment(ctx context.Context, transactionID int64, outcome domain.PaymentOutcome) (*domain.PaymentResult, error) {
	args := m.Called(ctx, transactionID, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResult), args.Error(1)
}

func (m *MockSettlementUseCase) ListTransactions(ctx context.Context, userID int64, page, limit int) (*domain.TransactionPage, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionPage), args.Error(1)
}

func (m *MockSettlementUseCase) GetTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// newTestContext builds a gin context for a direct handler call. userID 0 means anonymous.
func newTestContext(method, target string, body any, userID int64) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		c.Set(userIDKey, userID)
	}
	return c, w
}

func decodeBody[T any](w *httptest.ResponseRecorder) T {
	var v T
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	return v
}
