package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/h1bee-match/internal/config"
	svcErr "github.com/oggyb/h1bee-match/internal/errors"
	"github.com/oggyb/h1bee-match/internal/observability"
)

// NewGRPCServer builds a gRPC server with metrics, tracing and error mapping
// and registers all provided services.
func NewGRPCServer(registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			observability.GRPCServerMetricsUnaryInterceptor(),
			ErrorMappingUnaryInterceptor(),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// StartGRPCServer serves until ctx is cancelled, then stops gracefully.
func StartGRPCServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := NewGRPCServer(registrars...)

	go func() {
		<-ctx.Done()
		logger.Info("stopping gRPC server")
		grpcServer.GracefulStop()
	}()

	logger.Info("starting gRPC server", "addr", addr)
	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// ErrorMappingUnaryInterceptor turns service errors into gRPC statuses.
func ErrorMappingUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		var se *svcErr.Error
		if errors.As(err, &se) {
			return resp, svcErr.GRPCStatus(err)
		}
		return resp, err
	}
}
