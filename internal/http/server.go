// Package http provides the HTTP server, router and shared middleware of the key management service.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/allisson/webkms/internal/config"
	keystoreHTTP "github.com/allisson/webkms/internal/keystore/http"
	kmsHTTP "github.com/allisson/webkms/internal/kms/http"
	"github.com/allisson/webkms/internal/metrics"
)

// Server is the key management API server.
type Server struct {
	listener
	db     *sql.DB
	router *gin.Engine
}

// NewServer creates a Server; call SetupRouter before Start.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		listener: newListener("http server", host, port, logger),
		db:       db,
	}
}

// SetupRouter builds the gin router with every route and middleware.
// ctx bounds background work started by middleware (rate limiter cleanup).
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	keystoreHandler *keystoreHTTP.KeystoreHandler,
	operationHandler *kmsHTTP.OperationHandler,
	meterProvider metric.MeterProvider,
) {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.MetricsEnabled && meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	kms := router.Group("/kms")
	{
		keystores := kms.Group("/keystores")
		keystores.POST("", keystoreHandler.CreateHandler)
		keystores.GET("", keystoreHandler.FindHandler)
		keystores.GET("/:keystoreId", keystoreHandler.GetHandler)
		keystores.POST("/:keystoreId", keystoreHandler.UpdateHandler)

		keys := keystores.Group("/:keystoreId/keys")
		if cfg.RateLimitEnabled {
			keys.Use(kmsHTTP.RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
		}
		keys.POST("", operationHandler.GenerateHandler)
		keys.POST("/:keyId", operationHandler.RunHandler)

		kms.GET("/meters/:meterId/usage", keystoreHandler.StorageUsageHandler)
	}

	s.router = router
}

// GetHandler returns the http.Handler of the router.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	return s.serve(s.router)
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.shutdown(ctx)
}

// healthHandler reports that the process is up.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the database is reachable.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.db.PingContext(ctx) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": "ok"},
	})
}
