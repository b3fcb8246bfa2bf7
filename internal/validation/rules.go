// Package validation provides custom validation rules for the application.
package validation

import (
	"encoding/base64"
	"net/url"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/webkms/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// URI validates that a string is an absolute URI (it has a scheme), such as
// "https://kms.example.com/kms/keystores/z19..." or "did:key:z6Mk...".
var URI = validation.NewStringRuleWithError(
	func(s string) bool {
		u, err := url.Parse(s)
		if err != nil {
			return false
		}
		return u.Scheme != "" && (u.Opaque != "" || u.Host != "" || u.Path != "")
	},
	validation.NewError("validation_uri", "must be an absolute URI"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Base64URL validates that a string is unpadded base64url data. Empty strings are left to Required.
var Base64URL = validation.By(func(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_base64url_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	if _, err := base64.RawURLEncoding.DecodeString(s); err != nil {
		return validation.NewError("validation_base64url", "must be valid base64url-encoded data")
	}
	return nil
})
