package directory

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned by the directory API.
const (
	CodeRateLimited      = "RATE_LIMITED"
	CodeCapacityExceeded = "CAPACITY_EXCEEDED"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
)

// APIError represents an error response from the directory API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// IsTransient returns true for failure classes worth retrying:
// rate limiting and temporary licence-capacity exhaustion.
func (e *APIError) IsTransient() bool {
	switch e.Code {
	case CodeRateLimited, CodeCapacityExceeded:
		return true
	}
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// IsNotFound returns true if this is a not found error.
func (e *APIError) IsNotFound() bool {
	return e.Code == CodeNotFound
}

// IsValidation returns true if this is a validation error.
func (e *APIError) IsValidation() bool {
	return e.Code == CodeValidationError
}

// IsConflict returns true if this is a conflict error.
func (e *APIError) IsConflict() bool {
	return e.Code == CodeConflict
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.Code == CodeUnauthorized || e.Code == CodeForbidden
}

// IsTransient reports whether err is a retryable directory failure.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsTransient()
}

// IsNotFound reports whether err is a directory not-found error.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// codeForStatus maps an HTTP status to an error code when the response
// body carried none.
func codeForStatus(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusServiceUnavailable:
		return CodeCapacityExceeded
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	default:
		return ""
	}
}
