// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/selvohq/selvo/internal/platform/apperr"
	"github.com/selvohq/selvo/internal/platform/ctxutil"
	"github.com/selvohq/selvo/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
UserID returns the ID of the currently deserialized user, or "" if anonymous.
*/
func UserID(request *http.Request) string {
	return ctxutil.GetUserID(request.Context())
}

/*
RequiredUserID returns the ID of the currently logged-in user.

Returns:
  - string: User UUID
  - error: apperr.AuthenticationRequired if not authenticated
*/
func RequiredUserID(request *http.Request) (string, error) {
	userID := ctxutil.GetUserID(request.Context())
	if userID == "" {
		return "", apperr.AuthenticationRequired("You are not logged in")
	}
	return userID, nil
}
