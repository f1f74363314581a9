package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Domenick1991/ridebooking/config"
	"github.com/Domenick1991/ridebooking/internal/email"
	"github.com/Domenick1991/ridebooking/internal/kafka"
	"github.com/Domenick1991/ridebooking/internal/logger"
	"github.com/Domenick1991/ridebooking/internal/repository"
	"github.com/Domenick1991/ridebooking/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, zl.Named("producer"))
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		zl.Warn("kafka is not reachable yet, relay will retry", zap.Error(err))
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic, zl.Named("consumer"))
	defer consumer.Close()

	relay := worker.NewOutboxRelay(repository.NewStore(pool), producer, worker.RelayConfigFrom(cfg.Worker), zl.Named("outbox"))
	notifier := worker.NewNotifier(consumer, email.NewSender(zl.Named("email")), zl.Named("notifier"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		relay.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := notifier.Run(ctx); err != nil {
			zl.Error("notifier stopped", zap.Error(err))
			stop()
		}
	}()

	zl.Info("worker started")
	<-ctx.Done()
	zl.Info("shutting down worker")
	wg.Wait()
}
