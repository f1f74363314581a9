package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/ridebooking/config"
	"github.com/Domenick1991/ridebooking/internal/service/booking"
	"github.com/Domenick1991/ridebooking/internal/service/settlement"
	"github.com/Domenick1991/ridebooking/internal/service/trips"
	"github.com/Domenick1991/ridebooking/internal/telemetry"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const tracerName = "ridebooking/api"

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Trips      trips.TripUseCase
	Bookings   booking.BookingUseCase
	Settlement settlement.SettlementUseCase
}

func NewRouter(cfg config.HTTPConfig, auth config.AuthConfig, services Services, logger *zap.Logger, checks map[string]Pinger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logger(logger), telemetry.TracingMiddleware(tracerName))

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", RequestIDHeader, telemetry.TraceIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", healthHandler(checks))

	requireUser := AuthMiddleware(auth.JWTSecret)
	v1 := router.Group("/api/v1")

	NewTripHandler(services.Trips).Register(v1.Group("/trips"), requireUser)
	NewBookingHandler(services.Bookings).Register(v1.Group("/bookings", requireUser))
	NewPaymentHandler(services.Settlement).Register(v1.Group("/payments"), requireUser)
	NewTransactionHandler(services.Settlement).Register(v1.Group("/transactions", requireUser))

	return router
}

func healthHandler(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := gin.H{}
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": report})
	}
}
