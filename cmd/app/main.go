package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/ridebooking/api"
	"github.com/Domenick1991/ridebooking/config"
	"github.com/Domenick1991/ridebooking/internal/bootstrap"
	"github.com/Domenick1991/ridebooking/internal/cache"
	"github.com/Domenick1991/ridebooking/internal/logger"
	"github.com/Domenick1991/ridebooking/internal/repository"
	"github.com/Domenick1991/ridebooking/internal/service/booking"
	"github.com/Domenick1991/ridebooking/internal/service/settlement"
	"github.com/Domenick1991/ridebooking/internal/service/trips"
	"github.com/Domenick1991/ridebooking/internal/telemetry"
	"github.com/gin-gonic/gin"
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
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, os.Getenv("APP_ENV"))
	if err != nil {
		zl.Fatal("init telemetry", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.SeatMapCacheTTL())
	defer redisCache.Close()

	store := repository.NewStore(pool)
	topic := cfg.Kafka.BookingEventsTopic

	tripService := trips.NewTripService(store, redisCache, trips.WithLogger(zl.Named("trips")))
	bookingService := booking.NewBookingService(store, redisCache, topic,
		booking.WithLogger(zl.Named("booking")),
		booking.WithCancellationWindow(cfg.Booking.CancellationWindow()),
	)
	settlementService := settlement.NewSettlementService(store, topic, cfg.Payments.CallbackURL,
		settlement.WithLogger(zl.Named("settlement")),
		settlement.WithDefaultGateway(cfg.Payments.DefaultGateway),
	)

	router := api.NewRouter(cfg.HTTP, cfg.Auth,
		api.Services{Trips: tripService, Bookings: bookingService, Settlement: settlementService},
		zl.Named("http"),
		map[string]api.Pinger{"postgres": pool, "redis": redisCache},
	)

	if err := bootstrap.Run(ctx, cfg, router, settlementService, zl); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
