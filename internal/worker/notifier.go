package worker

import (
	"context"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"go.uber.org/zap"
)

type EventSource interface {
	Consume(ctx context.Context, handler func(context.Context, domain.BookingEvent) error) error
}

type NotificationSender interface {
	Send(ctx context.Context, event domain.BookingEvent) error
}

// Notifier forwards every consumed booking event to the sender.
type Notifier struct {
	source EventSource
	sender NotificationSender
	logger *zap.Logger
}

func NewNotifier(source EventSource, sender NotificationSender, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{source: source, sender: sender, logger: logger}
}

func (n *Notifier) Run(ctx context.Context) error {
	n.logger.Info("starting notification consumer")
	err := n.source.Consume(ctx, func(ctx context.Context, event domain.BookingEvent) error {
		n.logger.Debug("booking event received",
			zap.String("event_id", event.EventID),
			zap.String("type", string(event.Type)),
			zap.Int64("booking_id", event.BookingID),
		)
		return n.sender.Send(ctx, event)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
