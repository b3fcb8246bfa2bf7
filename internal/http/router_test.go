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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/webkms/internal/config"
	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
	keystoreHTTP "github.com/allisson/webkms/internal/keystore/http"
	keystoreMocks "github.com/allisson/webkms/internal/keystore/usecase/mocks"
	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
	kmsHTTP "github.com/allisson/webkms/internal/kms/http"
	kmsMocks "github.com/allisson/webkms/internal/kms/usecase/mocks"
	"github.com/allisson/webkms/internal/metrics"
)

const routerTestKeystoreID = "https://kms.example.com/kms/keystores/ks1"

func setupFullRouter(
	t *testing.T,
	cfg *config.Config,
) (*Server, *keystoreMocks.MockKeystoreUseCase, *kmsMocks.MockOperationUseCase) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	keystoreUseCase := &keystoreMocks.MockKeystoreUseCase{}
	operationUseCase := &kmsMocks.MockOperationUseCase{}
	t.Cleanup(func() {
		keystoreUseCase.AssertExpectations(t)
		operationUseCase.AssertExpectations(t)
	})

	provider, err := metrics.NewProvider("router_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server := NewServer(nil, "localhost", 0, logger)
	server.SetupRouter(
		ctx,
		cfg,
		keystoreHTTP.NewKeystoreHandler(keystoreUseCase, cfg.AllowedHost, logger),
		kmsHTTP.NewOperationHandler(operationUseCase, cfg.AllowedHost, logger),
		provider.MeterProvider(),
	)

	return server, keystoreUseCase, operationUseCase
}

func testConfig() *config.Config {
	return &config.Config{
		AllowedHost:             "kms.example.com",
		LogLevel:                "info",
		RateLimitEnabled:        true,
		RateLimitRequestsPerSec: 0.001,
		RateLimitBurst:          1,
		MetricsEnabled:          true,
		MetricsNamespace:        "router_test",
	}
}

func TestSetupRouter_KeystoreRoutes(t *testing.T) {
	server, keystoreUseCase, _ := setupFullRouter(t, testConfig())

	now := time.Now()
	keystoreUseCase.On("Get", mock.Anything, routerTestKeystoreID).Return(&keystoreDomain.KeystoreRecord{
		Config: keystoreDomain.KeystoreConfig{
			ID:         routerTestKeystoreID,
			Controller: "did:key:alice",
			KMSModule:  "local-v1",
		},
		Meta: keystoreDomain.Meta{Created: now, Updated: now},
	}, nil).Once()
	keystoreUseCase.On("GetStorageUsage", mock.Anything, "meter-1").
		Return(&keystoreDomain.StorageUsage{MeterID: "meter-1", Keystores: 1, Storage: 1}, nil).Once()

	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/kms/keystores/ks1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), routerTestKeystoreID)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/kms/meters/meter-1/usage", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRouter_KeyOperationsAreRateLimitedPerController(t *testing.T) {
	server, _, operationUseCase := setupFullRouter(t, testConfig())

	operationUseCase.On("Run", mock.Anything, mock.Anything).
		Return(kmsDomain.Result{"signatureValue": "c2ln"}, nil).Twice()

	sign := func(controller string) int {
		body := `{"type":"SignOperation","invocationTarget":"` + routerTestKeystoreID + `/keys/k1",` +
			`"verifyData":"aGVsbG8","proof":{"verificationMethod":"` + controller + `"}}`
		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w,
			httptest.NewRequest(http.MethodPost, "/kms/keystores/ks1/keys/k1", strings.NewReader(body)))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, sign("did:key:alice"))
	assert.Equal(t, http.StatusTooManyRequests, sign("did:key:alice"))
	assert.Equal(t, http.StatusOK, sign("did:key:bob"))
}

func TestSetupRouter_RateLimitDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitEnabled = false
	server, _, operationUseCase := setupFullRouter(t, cfg)

	operationUseCase.On("Run", mock.Anything, mock.Anything).
		Return(kmsDomain.Result{"verified": true}, nil).Times(3)

	for i := 0; i < 3; i++ {
		body := `{"type":"VerifyOperation","invocationTarget":"` + routerTestKeystoreID + `/keys/k1",` +
			`"verifyData":"aGVsbG8","signatureValue":"c2ln","proof":{"verificationMethod":"did:key:alice"}}`
		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w,
			httptest.NewRequest(http.MethodPost, "/kms/keystores/ks1/keys/k1", strings.NewReader(body)))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestServer_ReadinessHandler_NilDBThroughRouter(t *testing.T) {
	server, _, _ := setupFullRouter(t, testConfig())

	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_StartWithoutRouter(t *testing.T) {
	server := NewServer(nil, "localhost", 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Error(t, server.Start(context.Background()))
}
