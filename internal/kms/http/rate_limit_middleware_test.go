package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitedRouter(t *testing.T, rps float64, burst int) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := gin.New()
	router.POST("/op", RateLimitMiddleware(ctx, rps, burst, logger), func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		c.String(http.StatusOK, string(body))
	})
	return router
}

func postOperation(router *gin.Engine, controller string) *httptest.ResponseRecorder {
	body := `{"type":"SignOperation","proof":{"verificationMethod":"` + controller + `"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/op", strings.NewReader(body))
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("Success_BodyRestoredForHandler", func(t *testing.T) {
		router := newRateLimitedRouter(t, 10, 10)

		w := postOperation(router, "did:key:alice")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"verificationMethod":"did:key:alice"`)
	})

	t.Run("Error_BurstExceeded", func(t *testing.T) {
		router := newRateLimitedRouter(t, 0.001, 2)

		assert.Equal(t, http.StatusOK, postOperation(router, "did:key:alice").Code)
		assert.Equal(t, http.StatusOK, postOperation(router, "did:key:alice").Code)

		w := postOperation(router, "did:key:alice")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "QuotaExceededError")
	})

	t.Run("Success_ControllersLimitedIndependently", func(t *testing.T) {
		router := newRateLimitedRouter(t, 0.001, 1)

		assert.Equal(t, http.StatusOK, postOperation(router, "did:key:alice").Code)
		assert.Equal(t, http.StatusTooManyRequests, postOperation(router, "did:key:alice").Code)
		assert.Equal(t, http.StatusOK, postOperation(router, "did:key:bob").Code)
	})

	t.Run("Success_FallsBackToClientIP", func(t *testing.T) {
		router := newRateLimitedRouter(t, 0.001, 1)

		send := func() int {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/op", strings.NewReader(`not json`))
			router.ServeHTTP(w, req)
			return w.Code
		}

		assert.Equal(t, http.StatusOK, send())
		assert.Equal(t, http.StatusTooManyRequests, send())
	})
}

func TestRateLimiterStore_RemoveIdle(t *testing.T) {
	now := time.Now()
	store := &rateLimiterStore{rps: 1, burst: 1, now: func() time.Time { return now }}

	store.getLimiter("did:key:alice")
	now = now.Add(2 * time.Hour)
	store.getLimiter("did:key:bob")

	store.removeIdle(time.Hour)

	_, ok := store.limiters.Load("did:key:alice")
	assert.False(t, ok)
	_, ok = store.limiters.Load("did:key:bob")
	assert.True(t, ok)
}
