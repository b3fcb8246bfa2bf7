package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// corsAllowHeaders are the request headers a browser client may send, including the
// HTTP signature headers carried by capability invocations.
var corsAllowHeaders = []string{
	"Authorization",
	"Content-Type",
	"Capability-Invocation",
	"Digest",
	"Host",
	"Date",
}

// corsExposeHeaders are the response headers readable by a browser client.
var corsExposeHeaders = []string{
	"Location",
	"Retry-After",
	"X-Request-Id",
}

// createCORSMiddleware returns a CORS middleware for the comma-separated origin list,
// or nil when CORS is disabled or the list holds no origin.
func createCORSMiddleware(enabled bool, allowOriginsStr string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := parseOrigins(allowOriginsStr)
	if len(origins) == 0 {
		logger.Warn("CORS enabled but no origins configured - CORS will not be applied")
		return nil
	}

	logger.Info("CORS enabled",
		slog.Int("origin_count", len(origins)),
		slog.Any("origins", origins))

	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  corsAllowHeaders,
		ExposeHeaders: corsExposeHeaders,
		MaxAge:        12 * time.Hour,
	})
}

// parseOrigins splits a comma-separated origin list, dropping blank entries.
func parseOrigins(originsStr string) []string {
	var origins []string
	for _, part := range strings.Split(originsStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
