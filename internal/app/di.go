// Package app provides the dependency injection container that assembles the key management service.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/webkms/internal/cache"
	"github.com/allisson/webkms/internal/config"
	cryptoService "github.com/allisson/webkms/internal/crypto/service"
	"github.com/allisson/webkms/internal/database"
	"github.com/allisson/webkms/internal/http"
	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
	keystoreHTTP "github.com/allisson/webkms/internal/keystore/http"
	keystoreUseCase "github.com/allisson/webkms/internal/keystore/usecase"
	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
	kmsHTTP "github.com/allisson/webkms/internal/kms/http"
	"github.com/allisson/webkms/internal/kms/module"
	"github.com/allisson/webkms/internal/kms/module/local"
	kmsUseCase "github.com/allisson/webkms/internal/kms/usecase"
	"github.com/allisson/webkms/internal/metrics"
)

// Container holds all application dependencies and provides methods to access them.
// Components are created lazily on first access.
type Container struct {
	config *config.Config

	// Background context for long-lived helpers (rate limiter cleanup); cancelled on Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Crypto
	keeper cryptoService.Keeper
	sealer cryptoService.Sealer

	// Repositories
	keystoreRepository    keystoreUseCase.KeystoreRepository
	keyRecordRepository   kmsUseCase.KeyRecordRepository
	localSecretRepository local.SecretRepository

	// Caches
	keystoreConfigCache *cache.Cache[*keystoreDomain.KeystoreRecord]
	keyRecordCache      *cache.Cache[*kmsDomain.KeyRecord]

	// Key modules
	moduleRegistry *module.Registry

	// Use Cases
	keystoreUseCase  keystoreUseCase.KeystoreUseCase
	operationUseCase kmsUseCase.OperationUseCase

	// Handlers and Servers
	keystoreHandler  *keystoreHTTP.KeystoreHandler
	operationHandler *kmsHTTP.OperationHandler
	httpServer       *http.Server
	metricsServer    *http.MetricsServer

	mu                        sync.Mutex
	loggerInit                sync.Once
	dbInit                    sync.Once
	metricsProviderInit       sync.Once
	businessMetricsInit       sync.Once
	keeperInit                sync.Once
	sealerInit                sync.Once
	keystoreRepositoryInit    sync.Once
	keyRecordRepositoryInit   sync.Once
	localSecretRepositoryInit sync.Once
	keystoreConfigCacheInit   sync.Once
	keyRecordCacheInit        sync.Once
	moduleRegistryInit        sync.Once
	keystoreUseCaseInit       sync.Once
	operationUseCaseInit      sync.Once
	keystoreHandlerInit       sync.Once
	operationHandlerInit      sync.Once
	httpServerInit            sync.Once
	metricsServerInit         sync.Once
	initErrors                map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		config:     cfg,
		ctx:        ctx,
		cancel:     cancel,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the structured logger configured from LOG_LEVEL.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	return lazy(c, &c.dbInit, "db", &c.db, c.initDB)
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	return lazy(c, &c.metricsProviderInit, "metricsProvider", &c.metricsProvider, c.initMetricsProvider)
}

// BusinessMetrics returns the operation metrics recorder (a no-op when metrics are disabled).
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	return lazy(c, &c.businessMetricsInit, "businessMetrics", &c.businessMetrics, c.initBusinessMetrics)
}

// Shutdown releases every initialized resource.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.keeper != nil {
		if err := c.keeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("keeper close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// lazy runs init once, remembering its value or error for every later call.
func lazy[T any](c *Container, once *sync.Once, name string, dst *T, init func() (T, error)) (T, error) {
	once.Do(func() {
		v, err := init()
		if err != nil {
			c.mu.Lock()
			c.initErrors[name] = err
			c.mu.Unlock()
			return
		}
		*dst = v
	})

	c.mu.Lock()
	err := c.initErrors[name]
	c.mu.Unlock()
	if err != nil {
		var zero T
		return zero, err
	}
	return *dst, nil
}

func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(c.ctx, database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}
