package settlement_service_api

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StatusFromError maps domain error kinds onto gRPC codes. Anything that is not a
// domain error is reported as Internal without its message.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var de *domain.Error
	if !errors.As(err, &de) {
		return status.Error(codes.Internal, "internal error")
	}
	var code codes.Code
	switch de.Kind {
	case domain.KindNotFound:
		code = codes.NotFound
	case domain.KindForbidden:
		code = codes.PermissionDenied
	case domain.KindConflict:
		code = codes.Aborted
	case domain.KindPolicyViolation:
		code = codes.FailedPrecondition
	case domain.KindInvalid:
		code = codes.InvalidArgument
	default:
		code = codes.Internal
	}
	return status.Error(code, de.Message)
}

// UnaryInterceptor logs each call and converts returned errors with StatusFromError.
func UnaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			if domain.KindOf(err) == domain.KindUnknown {
				logger.Error("grpc call failed", append(fields, zap.Error(err))...)
			} else {
				logger.Info("grpc call rejected", append(fields, zap.Error(err))...)
			}
			return nil, StatusFromError(err)
		}
		logger.Info("grpc call", fields...)
		return resp, nil
	}
}
