package domain

import "time"

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

const TransactionTypeBookingPayment = "booking_payment"

// PaymentOutcome is what the gateway callback reports for a transaction.
type PaymentOutcome string

const (
	PaymentOutcomeSuccess PaymentOutcome = "success"
	PaymentOutcomeFailure PaymentOutcome = "failure"
)

func (o PaymentOutcome) Valid() bool {
	return o == PaymentOutcomeSuccess || o == PaymentOutcomeFailure
}

type Transaction struct {
	ID                   int64             `json:"id"`
	UserID               int64             `json:"user_id"`
	BookingID            int64             `json:"booking_id"`
	AmountCents          int64             `json:"amount_cents"`
	Type                 string            `json:"type"`
	Status               TransactionStatus `json:"status"`
	Gateway              string            `json:"gateway"`
	Description          string            `json:"description"`
	GatewayTransactionID *string           `json:"gateway_transaction_id,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

func (t *Transaction) Resolved() bool {
	return t.Status != TransactionStatusPending
}

// PaymentRequest is what RequestPayment hands back to the client.
type PaymentRequest struct {
	PaymentURL    string `json:"payment_url"`
	TransactionID int64  `json:"transaction_id"`
}

// PaymentResult is what ResolvePayment hands back to the gateway callback.
type PaymentResult struct {
	Success   bool  `json:"success"`
	BookingID int64 `json:"booking_id"`
}

type TransactionPage struct {
	Transactions      []Transaction `json:"transactions"`
	TotalPages        int           `json:"total_pages"`
	CurrentPage       int           `json:"current_page"`
	TotalTransactions int           `json:"total_transactions"`
}
