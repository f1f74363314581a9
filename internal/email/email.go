package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"go.uber.org/zap"
)

// Message is a rendered notification for one user.
type Message struct {
	UserID  int64
	Subject string
	Body    string
}

// Sender turns booking events into user notifications. Delivery is a log line;
// mail transport lives outside this service.
type Sender struct {
	logger *zap.Logger
}

func NewSender(logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event domain.BookingEvent) error {
	msg, ok := Compose(event)
	if !ok {
		return nil
	}
	s.logger.Info("notification sent",
		zap.Int64("user_id", msg.UserID),
		zap.Int64("booking_id", event.BookingID),
		zap.String("event_id", event.EventID),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// Compose renders the notification for event. The second result is false for
// events users are not notified about.
func Compose(event domain.BookingEvent) (Message, bool) {
	var subject, body string
	switch event.Type {
	case domain.EventBookingCreated:
		subject = fmt.Sprintf("Booking #%d reserved", event.BookingID)
		body = fmt.Sprintf("%d seat(s) are held for you. Complete the payment of %s to confirm.",
			len(event.SeatIDs), formatCents(event.AmountCents))
	case domain.EventPaymentCompleted:
		subject = fmt.Sprintf("Booking #%d confirmed", event.BookingID)
		body = fmt.Sprintf("We received your payment of %s. Have a good trip!", formatCents(event.AmountCents))
	case domain.EventPaymentFailed:
		subject = fmt.Sprintf("Payment for booking #%d failed", event.BookingID)
		body = "Your seats are still held. You can retry the payment from your bookings."
	case domain.EventBookingCancelled:
		subject = fmt.Sprintf("Booking #%d cancelled", event.BookingID)
		body = "Your booking was cancelled and the seats were released."
	default:
		return Message{}, false
	}
	return Message{UserID: event.UserID, Subject: subject, Body: body}, true
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
