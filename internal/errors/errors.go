// Package errors provides the standardized error taxonomy for the site service.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a standardized error code returned by the HTTP surface.
type ErrorCode string

const (
	// Request errors
	SITE_VALIDATION         ErrorCode = "SITE_VALIDATION"         // Payload failed validation
	SITE_BAD_REQUEST        ErrorCode = "SITE_BAD_REQUEST"        // Malformed request
	SITE_METHOD_NOT_ALLOWED ErrorCode = "SITE_METHOD_NOT_ALLOWED" // Wrong HTTP method

	// Authentication/Authorization errors
	SITE_AUTHN ErrorCode = "SITE_AUTHN" // Missing or invalid bearer token
	SITE_AUTHZ ErrorCode = "SITE_AUTHZ" // Token rejected by the backend

	// Resource errors
	SITE_NOT_FOUND ErrorCode = "SITE_NOT_FOUND" // Resource not found
	SITE_CONFLICT  ErrorCode = "SITE_CONFLICT"  // Resource conflict

	// Dependency errors
	SITE_UPSTREAM    ErrorCode = "SITE_UPSTREAM"    // Backend answered with an unexpected status
	SITE_UNAVAILABLE ErrorCode = "SITE_UNAVAILABLE" // Backend unreachable

	// Server errors
	SITE_INTERNAL ErrorCode = "SITE_INTERNAL" // Internal server error
)

// Error represents a standardized error response.
type Error struct {
	Code          ErrorCode   `json:"code"`
	Message       string      `json:"message"`
	CorrelationID string      `json:"correlationId"`
	Details       interface{} `json:"details,omitempty"`
	HTTPStatus    int         `json:"-"`
}

// New creates a new Error with the specified code and message.
func New(code ErrorCode, message string, correlationID string) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// NewWithDetails creates a new Error with the specified code, message, and details.
func NewWithDetails(code ErrorCode, message string, correlationID string, details interface{}) *Error {
	e := New(code, message, correlationID)
	e.Details = details
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// httpStatusCodeForCode maps error codes to HTTP status codes.
func httpStatusCodeForCode(code ErrorCode) int {
	switch code {
	case SITE_VALIDATION, SITE_BAD_REQUEST:
		return http.StatusBadRequest
	case SITE_METHOD_NOT_ALLOWED:
		return http.StatusMethodNotAllowed
	case SITE_AUTHN:
		return http.StatusUnauthorized
	case SITE_AUTHZ:
		return http.StatusForbidden
	case SITE_NOT_FOUND:
		return http.StatusNotFound
	case SITE_CONFLICT:
		return http.StatusConflict
	case SITE_UPSTREAM:
		return http.StatusBadGateway
	case SITE_UNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
