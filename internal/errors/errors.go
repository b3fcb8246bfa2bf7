// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes by handlers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the asserted controller doesn't have permission.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState indicates an optimistic-concurrency precondition did not hold.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotSupported indicates the requested operation is not supported by the resolved module.
	ErrNotSupported = errors.New("not supported")

	// ErrAborted indicates a long running operation observed cancellation.
	ErrAborted = errors.New("aborted")
)

// Description is the public view of an error: the error name surfaced to callers,
// its HTTP-equivalent status code and whether its message may be shown publicly.
type Description struct {
	Name       string
	StatusCode int
	Public     bool
}

// Describe classifies err against the standard domain errors.
// Unknown errors are described as a non-public OperationError with status 500.
func Describe(err error) Description {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return Description{Name: "DataError", StatusCode: http.StatusBadRequest, Public: true}
	case errors.Is(err, ErrConflict):
		return Description{Name: "DuplicateError", StatusCode: http.StatusConflict, Public: true}
	case errors.Is(err, ErrNotFound):
		return Description{Name: "NotFoundError", StatusCode: http.StatusNotFound, Public: true}
	case errors.Is(err, ErrForbidden):
		return Description{Name: "NotAllowedError", StatusCode: http.StatusForbidden, Public: true}
	case errors.Is(err, ErrInvalidState):
		return Description{Name: "InvalidStateError", StatusCode: http.StatusConflict, Public: true}
	case errors.Is(err, ErrNotSupported):
		return Description{Name: "NotSupportedError", StatusCode: http.StatusBadRequest, Public: true}
	case errors.Is(err, ErrAborted):
		return Description{Name: "AbortError", StatusCode: http.StatusServiceUnavailable, Public: true}
	case errors.Is(err, ErrUnauthorized):
		return Description{Name: "NotAllowedError", StatusCode: http.StatusUnauthorized, Public: true}
	default:
		return Description{Name: "OperationError", StatusCode: http.StatusInternalServerError, Public: false}
	}
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is like Wrap but formats the context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
