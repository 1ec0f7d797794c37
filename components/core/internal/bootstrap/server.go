package bootstrap

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc"

	"github.com/elder-platform/elder/common/mlog"
	"github.com/elder-platform/elder/common/mopentelemetry"
	grpcapi "github.com/elder-platform/elder/components/core/internal/adapters/grpc"
)

const shutdownGracePeriod = 10 * time.Second

// Server owns the fiber app and the gRPC ApiSurface, one listen address
// each, mirroring the teacher's own Server{app, serverAddress, logger,
// telemetry}.
type Server struct {
	app               *fiber.App
	serverAddress     string
	grpc              *grpc.Server
	grpcServerAddress string
	logger            mlog.Logger
	telemetry         *mopentelemetry.Telemetry
}

// NewServer builds a Server bound to cfg.ServerAddress (HTTP) and
// cfg.GRPCServerAddress (the ApiSurface RPC catalog, spec §6).
func NewServer(cfg *Config, app *fiber.App, apiSurface *grpcapi.Server, logger mlog.Logger, telemetry *mopentelemetry.Telemetry) *Server {
	addr := cfg.ServerAddress
	if addr == "" {
		addr = ":8080"
	}

	grpcAddr := cfg.GRPCServerAddress
	if grpcAddr == "" {
		grpcAddr = ":8081"
	}

	gs := grpc.NewServer()
	grpcapi.Register(gs, apiSurface)

	return &Server{
		app:               app,
		serverAddress:     addr,
		grpc:              gs,
		grpcServerAddress: grpcAddr,
		logger:            logger,
		telemetry:         telemetry,
	}
}

// Run starts the HTTP and gRPC servers and blocks until SIGINT/SIGTERM,
// then drains in-flight requests for up to shutdownGracePeriod before
// returning. There is no process launcher in this core's dependency set to
// run this under, so it uses the standard os/signal + context.WithTimeout
// shutdown idiom directly instead.
func (s *Server) Run() error {
	s.logger.Infof("elder-core listening on %s (http) and %s (grpc)", s.serverAddress, s.grpcServerAddress)

	errCh := make(chan error, 2)

	go func() {
		if err := s.app.Listen(s.serverAddress); err != nil {
			errCh <- err
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", s.grpcServerAddress)
		if err != nil {
			errCh <- err
			return
		}

		if err := s.grpc.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		s.logger.Info("shutdown signal received, draining in-flight requests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	s.grpc.GracefulStop()

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		s.logger.Errorf("graceful shutdown failed: %v", err)
		return err
	}

	if s.logger != nil {
		_ = s.logger.Sync()
	}

	return nil
}
