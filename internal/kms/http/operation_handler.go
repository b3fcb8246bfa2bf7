// Package http provides HTTP handlers and middleware for key operations.
// Capability proofs are verified upstream; proof.verificationMethod is trusted as the controller.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/webkms/internal/httputil"
	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
	"github.com/allisson/webkms/internal/kms/http/dto"
	kmsUseCase "github.com/allisson/webkms/internal/kms/usecase"
)

// OperationHandler handles HTTP requests for key operations.
type OperationHandler struct {
	operationUseCase kmsUseCase.OperationUseCase
	allowedHost      string
	logger           *slog.Logger
}

// NewOperationHandler creates a new key operation handler.
func NewOperationHandler(
	operationUseCase kmsUseCase.OperationUseCase,
	allowedHost string,
	logger *slog.Logger,
) *OperationHandler {
	return &OperationHandler{
		operationUseCase: operationUseCase,
		allowedHost:      allowedHost,
		logger:           logger,
	}
}

// GenerateHandler generates a key in a keystore. A missing invocationTarget.id is minted
// under the keystore; a given one must belong to it.
// POST /kms/keystores/:keystoreId/keys - Returns 201 Created with the public key description.
func (h *OperationHandler) GenerateHandler(c *gin.Context) {
	req, ok := h.decode(c)
	if !ok {
		return
	}

	if kmsDomain.OperationType(req.Type) != kmsDomain.GenerateKeyOperation {
		httputil.HandleBadRequestGin(c, fmt.Errorf("operation type must be %q", kmsDomain.GenerateKeyOperation), h.logger)
		return
	}

	keystoreID := keystoreDomain.KeystoreID(h.allowedHost, c.Param("keystoreId"))
	if req.InvocationTarget.ID == "" {
		req.InvocationTarget.ID = kmsDomain.KeyID(keystoreID, uuid.Must(uuid.NewV7()).String())
	} else if owner, _, err := kmsDomain.ParseKeyID(req.InvocationTarget.ID); err != nil || owner != keystoreID {
		httputil.HandleBadRequestGin(
			c,
			fmt.Errorf("invocation target %q is not a key of keystore %q", req.InvocationTarget.ID, keystoreID),
			h.logger,
		)
		return
	}

	result, err := h.operationUseCase.Run(c.Request.Context(), req.ToDomain())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Header("Location", req.InvocationTarget.ID)
	c.JSON(http.StatusCreated, result)
}

// RunHandler runs sign, verify, wrapKey or unwrapKey against an existing key.
// POST /kms/keystores/:keystoreId/keys/:keyId
func (h *OperationHandler) RunHandler(c *gin.Context) {
	req, ok := h.decode(c)
	if !ok {
		return
	}

	if kmsDomain.OperationType(req.Type) == kmsDomain.GenerateKeyOperation {
		httputil.HandleBadRequestGin(
			c,
			fmt.Errorf("%q must be posted to the keystore keys collection", kmsDomain.GenerateKeyOperation),
			h.logger,
		)
		return
	}

	keyID := kmsDomain.KeyID(keystoreDomain.KeystoreID(h.allowedHost, c.Param("keystoreId")), c.Param("keyId"))
	if req.InvocationTarget.ID != keyID {
		httputil.HandleBadRequestGin(
			c,
			fmt.Errorf("invocation target %q does not match request URL %q", req.InvocationTarget.ID, keyID),
			h.logger,
		)
		return
	}

	result, err := h.operationUseCase.Run(c.Request.Context(), req.ToDomain())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *OperationHandler) decode(c *gin.Context) (*dto.OperationRequest, bool) {
	var req dto.OperationRequest
	if err := httputil.DecodeStrictJSON(c, &req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return nil, false
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return nil, false
	}

	return &req, true
}
