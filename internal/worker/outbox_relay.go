package worker

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/ridebooking/config"
	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/Domenick1991/ridebooking/internal/repository"
	"go.uber.org/zap"
)

// Publisher delivers one outbox message to the broker.
type Publisher interface {
	Publish(ctx context.Context, msg *domain.OutboxMessage) error
}

type RelayConfig struct {
	PollInterval   time.Duration
	RetryInterval  time.Duration
	BatchSize      int
	// PublishTimeout bounds one broker call while the batch rows stay locked.
	PublishTimeout time.Duration
}

func RelayConfigFrom(cfg config.WorkerConfig) RelayConfig {
	return RelayConfig{
		PollInterval:  time.Duration(cfg.OutboxPollSeconds) * time.Second,
		RetryInterval: time.Duration(cfg.OutboxRetrySeconds) * time.Second,
		BatchSize:     cfg.OutboxBatchSize,
	}
}

func (c RelayConfig) withDefaults() RelayConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 5 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 10 * time.Second
	}
	return c
}

// OutboxRelay moves committed outbox rows to Kafka. Rows are claimed with
// SKIP LOCKED inside a transaction, so several relays can run side by side
// without publishing the same row twice in one pass.
type OutboxRelay struct {
	store     repository.Store
	publisher Publisher
	cfg       RelayConfig
	logger    *zap.Logger
}

func NewOutboxRelay(store repository.Store, publisher Publisher, cfg RelayConfig, logger *zap.Logger) *OutboxRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxRelay{store: store, publisher: publisher, cfg: cfg.withDefaults(), logger: logger}
}

// Run polls pending and failed messages until ctx is done.
func (r *OutboxRelay) Run(ctx context.Context) {
	r.logger.Info("starting outbox relay",
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Duration("retry_interval", r.cfg.RetryInterval),
		zap.Int("batch_size", r.cfg.BatchSize),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.loop(ctx, r.cfg.PollInterval, r.RelayPending)
	}()
	go func() {
		defer wg.Done()
		r.loop(ctx, r.cfg.RetryInterval, r.RetryFailed)
	}()
	wg.Wait()

	r.logger.Info("outbox relay stopped")
}

func (r *OutboxRelay) loop(ctx context.Context, interval time.Duration, pass func(context.Context) (int, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := pass(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox relay pass failed", zap.Error(err))
			}
		}
	}
}

// RelayPending publishes one batch of pending messages and reports how many were published.
func (r *OutboxRelay) RelayPending(ctx context.Context) (int, error) {
	return r.pass(ctx, func(ctx context.Context, repos repository.Repositories) ([]domain.OutboxMessage, error) {
		return repos.Outbox.FetchPending(ctx, r.cfg.BatchSize)
	})
}

// RetryFailed republishes failed messages that still have retries left.
func (r *OutboxRelay) RetryFailed(ctx context.Context) (int, error) {
	return r.pass(ctx, func(ctx context.Context, repos repository.Repositories) ([]domain.OutboxMessage, error) {
		return repos.Outbox.FetchRetryable(ctx, r.cfg.BatchSize)
	})
}

func (r *OutboxRelay) pass(ctx context.Context, fetch func(context.Context, repository.Repositories) ([]domain.OutboxMessage, error)) (int, error) {
	published := 0
	err := r.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		published = 0
		msgs, err := fetch(ctx, repos)
		if err != nil {
			return err
		}
		for i := range msgs {
			msg := &msgs[i]
			if err := r.publish(ctx, msg); err != nil {
				r.logger.Warn("failed to publish outbox message",
					zap.String("id", msg.ID),
					zap.String("event_type", string(msg.EventType)),
					zap.Int("attempt", msg.RetryCount+1),
					zap.Int("max_retries", msg.MaxRetries),
					zap.Error(err),
				)
				if err := repos.Outbox.MarkFailed(ctx, msg.ID, err.Error()); err != nil {
					return err
				}
				continue
			}
			if err := repos.Outbox.MarkPublished(ctx, msg.ID); err != nil {
				return err
			}
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if published > 0 {
		r.logger.Debug("relayed outbox messages", zap.Int("count", published))
	}
	return published, nil
}

func (r *OutboxRelay) publish(ctx context.Context, msg *domain.OutboxMessage) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.PublishTimeout)
	defer cancel()
	return r.publisher.Publish(ctx, msg)
}
