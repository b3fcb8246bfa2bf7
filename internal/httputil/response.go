// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/webkms/internal/errors"
)

// MaxBodyBytes bounds request bodies accepted by DecodeStrictJSON.
const MaxBodyBytes = 1 << 20

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	// Name is the public error name (e.g. "NotFoundError", "DuplicateError").
	Name    string `json:"name"`
	Message string `json:"message"`
}

// HandleErrorGin maps domain errors to HTTP status codes and returns a JSON response using Gin.
// Messages of non-public errors are replaced with a generic one.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	desc := apperrors.Describe(err)
	response := ErrorResponse{Name: desc.Name, Message: "An internal error occurred"}
	if desc.Public {
		response.Message = err.Error()
	}

	if logger != nil {
		level := slog.LevelWarn
		if !desc.Public {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			slog.Int("status_code", desc.StatusCode),
			slog.String("error_name", desc.Name),
			slog.Any("error", err),
		)
	}

	c.AbortWithStatusJSON(desc.StatusCode, response)
}

// HandleBadRequestGin writes a DataError response for malformed JSON or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error()), logger)
}

// DecodeStrictJSON decodes the request body into v, rejecting unknown fields,
// trailing data and bodies larger than MaxBodyBytes.
func DecodeStrictJSON(c *gin.Context, v any) error {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > MaxBodyBytes {
		return fmt.Errorf("request body exceeds %d bytes", MaxBodyBytes)
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if decoder.More() {
		return fmt.Errorf("invalid JSON body: unexpected trailing data")
	}

	return nil
}
