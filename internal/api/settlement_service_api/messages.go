package settlement_service_api

import (
	"encoding/json"
	"time"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype clients must send (application/grpc+json).
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

type ResolvePaymentRequest struct {
	TransactionID int64  `json:"transaction_id"`
	Status        string `json:"status"`
}

type ResolvePaymentResponse struct {
	Success   bool  `json:"success"`
	BookingID int64 `json:"booking_id"`
}

type GetTransactionRequest struct {
	TransactionID int64 `json:"transaction_id"`
}

type Transaction struct {
	ID                   int64  `json:"id"`
	UserID               int64  `json:"user_id"`
	BookingID            int64  `json:"booking_id"`
	AmountCents          int64  `json:"amount_cents"`
	Type                 string `json:"type"`
	Status               string `json:"status"`
	Gateway              string `json:"gateway"`
	Description          string `json:"description"`
	GatewayTransactionID string `json:"gateway_transaction_id,omitempty"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
}

func toMessage(t *domain.Transaction) *Transaction {
	if t == nil {
		return nil
	}
	msg := &Transaction{
		ID:          t.ID,
		UserID:      t.UserID,
		BookingID:   t.BookingID,
		AmountCents: t.AmountCents,
		Type:        t.Type,
		Status:      string(t.Status),
		Gateway:     t.Gateway,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
	if t.GatewayTransactionID != nil {
		msg.GatewayTransactionID = *t.GatewayTransactionID
	}
	return msg
}
