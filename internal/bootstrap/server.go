package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/ridebooking/config"
	settlementapi "github.com/Domenick1991/ridebooking/internal/api/settlement_service_api"
	"github.com/Domenick1991/ridebooking/internal/service/settlement"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 5 * time.Second

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	health     *health.Server
}

// Run starts the gRPC settlement server and the HTTP API and blocks until ctx is
// canceled or either server fails.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler, settlementSvc settlement.SettlementUseCase, logger *zap.Logger) error {
	s := newServers(cfg, handler, settlementSvc, logger)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	return s.serve(ctx, lis, logger)
}

func newServers(cfg *config.Config, handler http.Handler, settlementSvc settlement.SettlementUseCase, logger *zap.Logger) *Servers {
	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(settlementapi.UnaryInterceptor(logger)))
	settlementapi.RegisterSettlementServiceServer(grpcSrv, settlementapi.NewServer(settlementSvc))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		health: healthSrv,
	}
}

func (s *Servers) serve(ctx context.Context, grpcListener net.Listener, logger *zap.Logger) error {
	errCh := make(chan error, 2)

	go func() {
		logger.Info("gRPC server listening", zap.String("address", grpcListener.Addr().String()))
		errCh <- s.grpcServer.Serve(grpcListener)
	}()
	go func() {
		logger.Info("HTTP server listening", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.grpcServer.Stop()
		_ = s.httpServer.Close()
		return err
	case <-ctx.Done():
		logger.Info("shutting down servers")
		s.health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
