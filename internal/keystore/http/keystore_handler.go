// Package http provides HTTP handlers for keystore config management and metered storage usage.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/webkms/internal/httputil"
	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
	"github.com/allisson/webkms/internal/keystore/http/dto"
	keystoreUseCase "github.com/allisson/webkms/internal/keystore/usecase"
)

// KeystoreHandler handles HTTP requests for keystore configs.
type KeystoreHandler struct {
	keystoreUseCase keystoreUseCase.KeystoreUseCase
	allowedHost     string
	logger          *slog.Logger
}

// NewKeystoreHandler creates a new keystore handler. Keystore ids are minted under allowedHost.
func NewKeystoreHandler(
	keystoreUseCase keystoreUseCase.KeystoreUseCase,
	allowedHost string,
	logger *slog.Logger,
) *KeystoreHandler {
	return &KeystoreHandler{
		keystoreUseCase: keystoreUseCase,
		allowedHost:     allowedHost,
		logger:          logger,
	}
}

// CreateHandler creates a keystore.
// POST /kms/keystores - Returns 201 Created with the stored config and a Location header.
func (h *KeystoreHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateKeystoreRequest
	if err := httputil.DecodeStrictJSON(c, &req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	config := req.ToDomain(keystoreDomain.NewKeystoreID(h.allowedHost))
	record, err := h.keystoreUseCase.Insert(c.Request.Context(), config)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Header("Location", record.Config.ID)
	c.JSON(http.StatusCreated, dto.MapConfigToResponse(record.Config))
}

// GetHandler returns a keystore config.
// GET /kms/keystores/:keystoreId
func (h *KeystoreHandler) GetHandler(c *gin.Context) {
	record, err := h.keystoreUseCase.Get(c.Request.Context(), h.keystoreID(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapConfigToResponse(record.Config))
}

// UpdateHandler replaces a keystore config. The body must carry the stored sequence plus one.
// POST /kms/keystores/:keystoreId
func (h *KeystoreHandler) UpdateHandler(c *gin.Context) {
	var req dto.UpdateKeystoreRequest
	if err := httputil.DecodeStrictJSON(c, &req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if id := h.keystoreID(c); req.ID != id {
		httputil.HandleBadRequestGin(
			c,
			fmt.Errorf("configuration id %q does not match request URL %q", req.ID, id),
			h.logger,
		)
		return
	}

	config := req.ToDomain()
	if err := h.keystoreUseCase.Update(c.Request.Context(), config); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.UpdateKeystoreResponse{
		Success: true,
		Config:  dto.MapConfigToResponse(*config),
	})
}

// FindHandler lists the keystores of a controller, optionally filtered.
// GET /kms/keystores?controller=...&referenceId=...&meterId=...&kmsModule=...&offset=0&limit=50&sort=asc
func (h *KeystoreHandler) FindHandler(c *gin.Context) {
	controller := c.Query("controller")
	if controller == "" {
		httputil.HandleBadRequestGin(c, fmt.Errorf("controller query parameter is required"), h.logger)
		return
	}

	page, err := httputil.ParsePage(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	query := keystoreDomain.FindQuery{
		ReferenceID: c.Query("referenceId"),
		MeterID:     c.Query("meterId"),
		KMSModule:   c.Query("kmsModule"),
	}
	opts := keystoreDomain.FindOptions{Limit: page.Limit, Offset: page.Offset, Descending: page.Descending}

	records, err := h.keystoreUseCase.Find(c.Request.Context(), controller, query, opts)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRecordsToListResponse(records))
}

// StorageUsageHandler reports the storage charged to a meter.
// GET /kms/meters/:meterId/usage
func (h *KeystoreHandler) StorageUsageHandler(c *gin.Context) {
	usage, err := h.keystoreUseCase.GetStorageUsage(c.Request.Context(), c.Param("meterId"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStorageUsageToResponse(usage))
}

func (h *KeystoreHandler) keystoreID(c *gin.Context) string {
	return keystoreDomain.KeystoreID(h.allowedHost, c.Param("keystoreId"))
}
