package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/webkms/internal/app"
	"github.com/allisson/webkms/internal/config"
)

// shutdowner is implemented by the API and metrics servers.
type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// RunServer starts the API server, and the metrics server when metrics are enabled.
// Blocks until SIGINT/SIGTERM or a fatal server error, then stops both servers
// within DBConnMaxLifetime.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting server",
		slog.String("version", version),
		slog.String("allowed_host", cfg.AllowedHost),
		slog.String("db_driver", cfg.DBDriver),
	)

	defer closeContainer(container, logger)

	// Building the API server initializes every dependency, so configuration
	// errors surface here rather than on the first request.
	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	servers := map[string]shutdowner{"api server": server}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serverErr := make(chan error, 2)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("api server error: %w", err)
		}
	}()

	if cfg.MetricsEnabled {
		metricsServer, err := container.MetricsServer()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics server: %w", err)
		}
		servers["metrics server"] = metricsServer
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				serverErr <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return shutdownServers(servers, cfg.DBConnMaxLifetime)
	case err := <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", err))
		return errors.Join(err, shutdownServers(servers, cfg.DBConnMaxLifetime))
	}
}

// shutdownServers stops every server, waiting at most timeout.
func shutdownServers(servers map[string]shutdowner, timeout time.Duration) error {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	var shutdownErrors []error
	for name, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("%s shutdown: %w", name, err))
		}
	}
	return errors.Join(shutdownErrors...)
}
