// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

/*
Package apperr defines the centralized error handling framework for Selvo.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Closed taxonomy: The credential lifecycle errors (TokenReplay, SessionExpired, ...)
    are decided once at the boundary that produces them, never re-sniffed downstream.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Error Codes

// Machine-readable identifiers for the credential lifecycle taxonomy.
const (
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	CodeTokenReplay            = "TOKEN_REPLAY"
	CodeSessionExpired         = "SESSION_EXPIRED"
	CodeCredentialMismatch     = "CREDENTIAL_MISMATCH"
	CodeProviderRejected       = "PROVIDER_REJECTED"
	CodeUpstreamFailure        = "UPSTREAM_FAILURE"

	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeForbidden       = "FORBIDDEN"
	CodeValidationError = "VALIDATION_ERROR"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL_ERROR"
)

// AppError is the canonical error type for the Selvo API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries or
// upstream OAuth provider responses).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "TOKEN_REPLAY").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Credential Lifecycle Errors

// AuthenticationRequired creates a 401 [AppError] for a missing or invalid
// access token.
func AuthenticationRequired(msg string) *AppError {
	return &AppError{
		Code:       CodeAuthenticationRequired,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenReplay creates the 403 [AppError] returned when a refresh token is
// presented a second time. The message is part of the public API contract.
func TokenReplay() *AppError {
	return &AppError{
		Code:       CodeTokenReplay,
		Message:    "Access token can only be refreshed once",
		HTTPStatus: http.StatusForbidden,
	}
}

// SessionExpired creates a 401 [AppError] for a missing session cache entry.
func SessionExpired() *AppError {
	return &AppError{
		Code:       CodeSessionExpired,
		Message:    "Session has expired, login again",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// CredentialMismatch creates a 401 [AppError] for a failed password comparison.
//
// The message is deliberately generic to prevent account enumeration.
func CredentialMismatch() *AppError {
	return &AppError{
		Code:       CodeCredentialMismatch,
		Message:    "Invalid email or password",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// ProviderRejected creates a 403 [AppError] for a third-party identity the
// provider itself reports as unusable (e.g. unverified Google email).
func ProviderRejected(msg string) *AppError {
	return &AppError{
		Code:       CodeProviderRejected,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// UpstreamFailure creates a 502 [AppError] wrapping a network or parse error
// from a third-party OAuth endpoint. The cause is stored for logging only.
func UpstreamFailure(cause error) *AppError {
	return &AppError{
		Code:       CodeUpstreamFailure,
		Message:    "Upstream identity provider request failed",
		HTTPStatus: http.StatusBadGateway,
		Cause:      cause,
	}
}

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("User") // Returns "User not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       CodeAuthenticationRequired,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidationError,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries the given machine-readable code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
