package api

import (
	"net/http"
	"testing"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPaymentHandler_request(t *testing.T) {
	mockService := &MockSettlementUseCase{}
	handler := NewPaymentHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/payments/request", gin.H{"booking_id": 5}, 7)
	mockService.On("RequestPayment", c.Request.Context(), int64(7), int64(5), "").Return(&domain.PaymentRequest{
		PaymentURL:    "http://localhost:3000/payment/callback?transaction_id=12&mock=true",
		TransactionID: 12,
	}, nil)

	handler.request(c)

	assert.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[domain.PaymentRequest](w)
	assert.Equal(t, int64(12), got.TransactionID)
	assert.Contains(t, got.PaymentURL, "transaction_id=12")
}

func TestPaymentHandler_request_NotPayable(t *testing.T) {
	mockService := &MockSettlementUseCase{}
	handler := NewPaymentHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/payments/request", gin.H{"booking_id": 5, "gateway": "mock_gateway"}, 7)
	mockService.On("RequestPayment", mock.Anything, int64(7), int64(5), "mock_gateway").
		Return(nil, domain.BookingNotPayable(domain.BookingStatusConfirmed))

	handler.request(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "booking_not_payable", decodeBody[map[string]string](w)["code"])
}

func TestPaymentHandler_request_MissingBooking(t *testing.T) {
	mockService := &MockSettlementUseCase{}
	handler := NewPaymentHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/payments/request", gin.H{}, 7)

	handler.request(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "RequestPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentHandler_verify(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		setup      func(m *MockSettlementUseCase)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "success",
			target: "/payments/verify?transaction_id=12&status=success",
			setup: func(m *MockSettlementUseCase) {
				m.On("ResolvePayment", mock.Anything, int64(12), domain.PaymentOutcomeSuccess).
					Return(&domain.PaymentResult{Success: true, BookingID: 5}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"booking_id":5}`,
		},
		{
			name:   "failure",
			target: "/payments/verify?transaction_id=12&status=failure",
			setup: func(m *MockSettlementUseCase) {
				m.On("ResolvePayment", mock.Anything, int64(12), domain.PaymentOutcomeFailure).
					Return(&domain.PaymentResult{Success: false, BookingID: 5}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":false,"booking_id":5}`,
		},
		{
			name:       "missing transaction",
			target:     "/payments/verify?status=success",
			setup:      func(m *MockSettlementUseCase) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "already resolved",
			target: "/payments/verify?transaction_id=12&status=success",
			setup: func(m *MockSettlementUseCase) {
				m.On("ResolvePayment", mock.Anything, int64(12), domain.PaymentOutcomeSuccess).
					Return(nil, domain.TransactionAlreadyResolved(domain.TransactionStatusCompleted))
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockSettlementUseCase{}
			tt.setup(mockService)
			handler := NewPaymentHandler(mockService)

			c, w := newTestContext(http.MethodGet, tt.target, nil, 0)

			handler.verify(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestTransactionHandler_list(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "/transactions", 1, 10},
		{"explicit", "/transactions?page=3&limit=25", 3, 25},
		{"garbage falls through to service defaults", "/transactions?page=x&limit=y", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockSettlementUseCase{}
			handler := NewTransactionHandler(mockService)

			c, w := newTestContext(http.MethodGet, tt.target, nil, 7)
			mockService.On("ListTransactions", c.Request.Context(), int64(7), tt.wantPage, tt.wantLimit).
				Return(&domain.TransactionPage{Transactions: []domain.Transaction{}, CurrentPage: 1}, nil)

			handler.list(c)

			assert.Equal(t, http.StatusOK, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}
