package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	provider, err := NewProvider("webkms_http")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), "webkms_http"))
	router.POST("/kms/keystores/:keystoreId/keys/:keyId", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"signatureValue": "c2ln"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	send := func(method, path string) int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/kms/keystores/ks1/keys/k1"))
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/kms/keystores/ks2/keys/k9"))
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/health"))
	assert.Equal(t, http.StatusNotFound, send(http.MethodGet, "/nope"))

	output := scrape(t, provider)

	assertMetricLine(t, output, `webkms_http_http_requests_total`,
		`method="POST".*path="/kms/keystores/:keystoreId/keys/:keyId".*status_code="200"`, `2`)
	assertMetricLine(t, output, `webkms_http_http_requests_total`,
		`method="GET".*path="unknown".*status_code="404"`, `1`)
	assert.NotContains(t, output, `path="/health"`)
	assert.NotContains(t, output, `ks1`)
}

func TestRoutePattern(t *testing.T) {
	assert.Equal(t, "/kms/keystores/:keystoreId", routePattern("/kms/keystores/:keystoreId"))
	assert.Equal(t, "unknown", routePattern(""))
	assert.Equal(t, "/", routePattern("/"))
}
