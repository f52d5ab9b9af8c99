// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/selvohq/selvo/internal/platform/respond"
	"github.com/selvohq/selvo/internal/platform/sec"
	"github.com/selvohq/selvo/internal/platform/validate"
	"github.com/selvohq/selvo/internal/users/auth"
	"github.com/selvohq/selvo/pkg/pagination"

	requestutil "github.com/selvohq/selvo/internal/platform/request"
)

// # Definitions & Constructors

// Handler implements the profile and administration HTTP endpoints.
type Handler struct {
	accountService *Service
	gate           *auth.Gate
	secureCookies  bool
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, gate *auth.Gate, secureCookies bool) *Handler {
	return &Handler{accountService: service, gate: gate, secureCookies: secureCookies}
}

// Routes returns a [chi.Router] configured with account endpoints.
//
// # Endpoints
//   - GET    /me         : Returns the caller's profile.
//   - PATCH  /me         : Updates the caller's profile.
//   - DELETE /me         : Deactivates the caller's account.
//   - GET    /           : Lists accounts (admin).
//   - PATCH  /{id}/role  : Changes an account's role (admin).
//   - DELETE /{id}       : Hard-deletes an account (admin).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Self-service endpoints
	router.Group(func(r chi.Router) {
		r.Use(handler.gate.RequireUser)
		r.Get("/me", handler.me)
		r.Patch("/me", handler.updateMe)
		r.Delete("/me", handler.deactivateMe)
	})

	// Administrative endpoints
	router.Group(func(r chi.Router) {
		r.Use(handler.gate.RequireRole(sec.RoleAdmin))
		r.Get("/", handler.list)
		r.Patch("/{id}/role", handler.updateRole)
		r.Delete("/{id}", handler.hardDelete)
	})

	return router
}

// # Request Payloads

type updateProfileRequest struct {
	Name  *string `json:"name"`
	Photo *string `json:"photo"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// # Self-Service Endpoints

/*
Me returns the authenticated user's own profile.

GET /api/account/me

Response:
  - 200: User: Full private profile
  - 401: ErrUnauthorized: Not logged in
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	user := auth.UserFrom(request.Context())

	respond.OK(writer, map[string]any{
		"user": user,
	})
}

/*
UpdateMe applies a partial profile update for the authenticated user.

PATCH /api/account/me

Request:
  - Body: updateProfileRequest (Name, Photo; both optional)

Response:
  - 200: User: Updated profile
  - 400: ErrInvalidJSON: Bad input or validation failure
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.UserID(request)

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	if input.Name != nil {
		v.Required(FieldName, *input.Name).MaxLen(FieldName, *input.Name, 100)
	}
	if input.Photo != nil {
		v.MaxLen(FieldPhoto, *input.Photo, 2048)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		Name:  input.Name,
		Photo: input.Photo,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"user": updated,
	})
}

/*
DeactivateMe soft-deletes the authenticated user's own account.

DELETE /api/account/me

Description: Ends every live session. The account can only be restored by
support, so the frontend confirms before calling this.

Response:
  - 204: No Content: Account deactivated
*/
func (handler *Handler) deactivateMe(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.UserID(request)

	if err := handler.accountService.Deactivate(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	auth.ClearSessionCookies(writer, handler.secureCookies)
	respond.NoContent(writer)
}

// # Administrative Endpoints

/*
List returns one page of accounts for the admin console.

GET /api/account?page=1&limit=20

Response:
  - 200: Paginated list of accounts
  - 403: ErrForbidden: Caller is not an admin
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, meta, err := handler.accountService.List(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, meta)
}

/*
UpdateRole changes the authorization role of an account.

PATCH /api/account/{id}/role

Request:
  - Body: updateRoleRequest (Role: user, guide, lead-guide or admin)

Response:
  - 200: Success: Role updated
  - 400: ErrValidation: Unknown role
  - 404: ErrNotFound: No such account
*/
func (handler *Handler) updateRole(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "id")

	var input updateRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.UUID(FieldID, userID).
		Required(FieldRole, input.Role).
		OneOf(FieldRole, input.Role,
			string(sec.RoleUser), string(sec.RoleGuide), string(sec.RoleLeadGuide), string(sec.RoleAdmin))

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.UpdateRole(request.Context(), userID, sec.UserRole(input.Role)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Role updated successfully")
}

/*
HardDelete permanently removes an account.

DELETE /api/account/{id}

Response:
  - 204: No Content: Account removed
  - 404: ErrNotFound: No such account
*/
func (handler *Handler) hardDelete(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "id")

	v := &validate.Validator{}
	v.UUID(FieldID, userID)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.HardDelete(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
