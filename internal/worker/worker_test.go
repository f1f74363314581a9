package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/ridebooking/config"
	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/Domenick1991/ridebooking/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, msg *domain.OutboxMessage) error {
	args := m.Called(ctx, msg.ID)
	return args.Error(0)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, event domain.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type sliceSource []domain.BookingEvent

func (s sliceSource) Consume(ctx context.Context, handler func(context.Context, domain.BookingEvent) error) error {
	for _, event := range s {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func enqueue(t *testing.T, store *repotest.Store, id string, bookingID int64) {
	t.Helper()
	msg, err := domain.NewOutboxMessage("booking-events", domain.BookingEvent{
		EventID:    id,
		Type:       domain.EventBookingCreated,
		BookingID:  bookingID,
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, store.Repos().Outbox.Enqueue(context.Background(), msg))
}

func statuses(store *repotest.Store) map[string]domain.OutboxStatus {
	out := make(map[string]domain.OutboxStatus)
	for _, m := range store.OutboxMessages() {
		out[m.ID] = m.Status
	}
	return out
}

func TestOutboxRelay_RelayPending(t *testing.T) {
	store := repotest.New()
	enqueue(t, store, "evt-1", 1)
	enqueue(t, store, "evt-2", 2)
	enqueue(t, store, "evt-3", 3)

	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, "evt-1").Return(nil).Once()
	publisher.On("Publish", mock.Anything, "evt-2").Return(errors.New("broker unavailable")).Once()

	relay := NewOutboxRelay(store, publisher, RelayConfig{BatchSize: 2}, nil)
	published, err := relay.RelayPending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Equal(t, map[string]domain.OutboxStatus{
		"evt-1": domain.OutboxStatusPublished,
		"evt-2": domain.OutboxStatusFailed,
		"evt-3": domain.OutboxStatusPending,
	}, statuses(store))

	failed := store.OutboxMessages()[1]
	assert.Equal(t, 1, failed.RetryCount)
	assert.Equal(t, "broker unavailable", failed.LastError)
	publisher.AssertExpectations(t)
}

func TestOutboxRelay_PublishTimeout(t *testing.T) {
	store := repotest.New()
	enqueue(t, store, "evt-1", 1)
	enqueue(t, store, "evt-2", 2)

	publisher := &MockPublisher{}
	// Зависший брокер: ждём, пока истечёт контекст публикации
	publisher.On("Publish", mock.Anything, "evt-1").Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		<-ctx.Done()
	}).Return(context.DeadlineExceeded).Once()
	publisher.On("Publish", mock.Anything, "evt-2").Return(nil).Once()

	relay := NewOutboxRelay(store, publisher, RelayConfig{PublishTimeout: 20 * time.Millisecond}, nil)

	done := make(chan struct{})
	var published int
	var err error
	go func() {
		defer close(done)
		published, err = relay.RelayPending(context.Background())
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("relay pass did not finish")
	}

	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Equal(t, map[string]domain.OutboxStatus{
		"evt-1": domain.OutboxStatusFailed,
		"evt-2": domain.OutboxStatusPublished,
	}, statuses(store))
	publisher.AssertExpectations(t)
}

func TestOutboxRelay_RetryFailed_StopsAtMaxRetries(t *testing.T) {
	store := repotest.New()
	enqueue(t, store, "evt-1", 1)

	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, "evt-1").Return(errors.New("broker unavailable"))
	relay := NewOutboxRelay(store, publisher, RelayConfig{}, nil)
	ctx := context.Background()

	_, err := relay.RelayPending(ctx)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := relay.RetryFailed(ctx)
		require.NoError(t, err)
	}

	msg := store.OutboxMessages()[0]
	assert.Equal(t, domain.OutboxStatusFailed, msg.Status)
	assert.Equal(t, msg.MaxRetries, msg.RetryCount)
	publisher.AssertNumberOfCalls(t, "Publish", msg.MaxRetries)
}

func TestOutboxRelay_RetryFailed_Recovers(t *testing.T) {
	store := repotest.New()
	enqueue(t, store, "evt-1", 1)

	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, "evt-1").Return(errors.New("timeout")).Once()
	publisher.On("Publish", mock.Anything, "evt-1").Return(nil).Once()
	relay := NewOutboxRelay(store, publisher, RelayConfig{}, nil)
	ctx := context.Background()

	_, err := relay.RelayPending(ctx)
	require.NoError(t, err)
	published, err := relay.RetryFailed(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, published)
	msg := store.OutboxMessages()[0]
	assert.Equal(t, domain.OutboxStatusPublished, msg.Status)
	assert.NotNil(t, msg.PublishedAt)
}

func TestOutboxRelay_Run(t *testing.T) {
	store := repotest.New()
	enqueue(t, store, "evt-1", 1)

	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, "evt-1").Return(nil).Once()
	relay := NewOutboxRelay(store, publisher, RelayConfig{PollInterval: 5 * time.Millisecond, RetryInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return statuses(store)["evt-1"] == domain.OutboxStatusPublished
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestRelayConfigFrom(t *testing.T) {
	cfg := RelayConfigFrom(config.WorkerConfig{OutboxPollSeconds: 2, OutboxRetrySeconds: 10, OutboxBatchSize: 50})

	assert.Equal(t, RelayConfig{PollInterval: 2 * time.Second, RetryInterval: 10 * time.Second, BatchSize: 50}, cfg)
	assert.Equal(t, 100, RelayConfig{}.withDefaults().BatchSize)
	assert.Equal(t, 10*time.Second, RelayConfig{}.withDefaults().PublishTimeout)
}

func TestNotifier_Run(t *testing.T) {
	events := sliceSource{
		{EventID: "evt-1", Type: domain.EventBookingCreated, BookingID: 7},
		{EventID: "evt-2", Type: domain.EventPaymentCompleted, BookingID: 7},
	}
	sender := &MockSender{}
	sender.On("Send", mock.Anything, mock.AnythingOfType("domain.BookingEvent")).Return(nil).Twice()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewNotifier(events, sender, nil).Run(ctx)

	assert.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestNotifier_Run_SenderError(t *testing.T) {
	events := sliceSource{{EventID: "evt-1", Type: domain.EventBookingCreated, BookingID: 7}}
	sender := &MockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	err := NewNotifier(events, sender, nil).Run(context.Background())

	assert.EqualError(t, err, "smtp down")
}
