// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// It ensures that every response (Success or Error) across the entire application
// follows a strict, predictable JSON envelope structure. The storefront SPA
// relies on the {status, message} error shape for all failure paths.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/selvohq/selvo/internal/platform/apperr"
	"github.com/selvohq/selvo/internal/platform/constants"
	"github.com/selvohq/selvo/internal/platform/ctxutil"
	"github.com/selvohq/selvo/pkg/pagination"
)

// ErrorEnvelope is the JSON envelope for error responses.
//
// Status is "fail" for client errors (4xx) and "error" for server errors (5xx).
type ErrorEnvelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// Success writes a response with "status": "success" merged into the payload.
func Success(writer http.ResponseWriter, statusCode int, fields map[string]any) {
	payload := map[string]any{constants.FieldStatus: constants.StatusSuccess}
	for key, value := range fields {
		payload[key] = value
	}
	JSON(writer, statusCode, payload)
}

// OK writes a 200 success response.
func OK(writer http.ResponseWriter, fields map[string]any) {
	Success(writer, http.StatusOK, fields)
}

// Created writes a 201 success response.
func Created(writer http.ResponseWriter, fields map[string]any) {
	Success(writer, http.StatusCreated, fields)
}

// Message writes a 200 success response carrying only a message.
func Message(writer http.ResponseWriter, message string) {
	Success(writer, http.StatusOK, map[string]any{constants.FieldMessage: message})
}

// Paginated writes a 200 success response with list data and a metadata block.
func Paginated(writer http.ResponseWriter, data interface{}, metadata pagination.Meta) {
	Success(writer, http.StatusOK, map[string]any{
		constants.FieldData: data,
		constants.FieldMeta: metadata,
	})
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Error converts any Go error into a standardized JSON API error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		// Unexpected internal error: log full details but hide them from the client for security.
		logger := ctxutil.GetLogger(request.Context())
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= 500 {
		logger := ctxutil.GetLogger(request.Context())
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	status := constants.StatusFail
	if appError.HTTPStatus >= 500 {
		status = constants.StatusError
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Status:  status,
		Message: appError.Message,
		Details: appError.Details,
	})
}
