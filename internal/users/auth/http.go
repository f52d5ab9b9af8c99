// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/selvohq/selvo/internal/platform/apperr"
	"github.com/selvohq/selvo/internal/platform/constants"
	"github.com/selvohq/selvo/internal/platform/ctxutil"
	requestutil "github.com/selvohq/selvo/internal/platform/request"
	"github.com/selvohq/selvo/internal/platform/respond"
	"github.com/selvohq/selvo/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the credential and session HTTP endpoints.
//
// # Scope
//
// This handler manages the user lifecycle entry points (registration, email
// verification, password recovery) and the session lifecycle (login, refresh,
// logout). Profile management lives in the account package.
type Handler struct {
	authService   *Service
	gate          *Gate
	tokens        TokenProvider
	secureCookies bool
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, gate *Gate, tokens TokenProvider, secureCookies bool) *Handler {
	return &Handler{
		authService:   service,
		gate:          gate,
		tokens:        tokens,
		secureCookies: secureCookies,
	}
}

// UserRoutes returns a [chi.Router] for credential lifecycle endpoints.
//
// # Endpoints
//   - POST  /register             : Creates a new local account.
//   - GET   /verifyemail/{code}   : Activates an account from the emailed code.
//   - POST  /forgotpassword       : Opens a password reset window.
//   - PATCH /resetpassword/{token}: Completes a password reset.
//   - PATCH /updatepassword       : Rotates the password inside a session.
func (handler *Handler) UserRoutes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Get("/verifyemail/{code}", handler.verifyEmail)
	router.Post("/forgotpassword", handler.forgotPassword)
	router.Patch("/resetpassword/{token}", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(handler.gate.RequireUser)
		r.Patch("/updatepassword", handler.updatePassword)
	})

	return router
}

// SessionRoutes returns a [chi.Router] for session lifecycle endpoints.
//
// # Endpoints
//   - POST /login   : Authenticates and opens a session.
//   - GET  /refresh : Exchanges the refresh cookie for a new token pair.
//   - GET  /logout  : Tears the session down.
func (handler *Handler) SessionRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.login)
	router.Get("/refresh", handler.refresh)

	router.Group(func(r chi.Router) {
		r.Use(handler.gate.RequireUser)
		r.Get("/logout", handler.logout)
	})

	return router
}

// # Session Cookies

/*
SetSessionCookies writes the three session cookies for a freshly issued pair.

Description: The access and refresh cookies are HttpOnly with strict same-site
policy. The logged_in cookie is deliberately script-readable so the frontend
can render login state without touching the tokens; it lives as long as the
session is refreshable, so it expires with the refresh token.

Parameters:
  - writer: http.ResponseWriter
  - pair: *TokenPair
  - accessTTL: time.Duration
  - refreshTTL: time.Duration
  - secure: bool (Secure cookie flag, off for plain-HTTP development)
*/
func SetSessionCookies(writer http.ResponseWriter, pair *TokenPair, accessTTL, refreshTTL time.Duration, secure bool) {
	now := time.Now()

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.AccessTokenCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  now.Add(accessTTL),
		MaxAge:   int(accessTTL / time.Second),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  now.Add(refreshTTL),
		MaxAge:   int(refreshTTL / time.Second),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.LoggedInCookieName,
		Value:    "true",
		Path:     "/",
		Expires:  now.Add(refreshTTL),
		MaxAge:   int(refreshTTL / time.Second),
		Secure:   secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookies expires all three session cookies on the client.
func ClearSessionCookies(writer http.ResponseWriter, secure bool) {
	for _, name := range []string{
		constants.AccessTokenCookieName,
		constants.RefreshTokenCookieName,
		constants.LoggedInCookieName,
	} {
		http.SetCookie(writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Secure:   secure,
			HttpOnly: name != constants.LoggedInCookieName,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// # Request Payloads

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type updatePasswordRequest struct {
	PasswordCurrent string `json:"password_current"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// # Credential Endpoints

/*
Register handles the creation of a new local account.

POST /api/users/register

Description: Validates input, checks for identity conflicts, and persists a
new unverified account. The verification code is handed to the delivery
pipeline; the response never contains it.

Request:
  - Body: registerRequest (Name, Email, Password, PasswordConfirm)

Response:
  - 201: Success: Account created, verification pending
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 100).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Match(FieldPasswordConfirm, input.PasswordConfirm, input.Password, "Passwords do not match")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, verificationCode, err := handler.authService.Register(request.Context(), RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Delivery is asynchronous; the code is only surfaced in debug logs so
	// development setups can verify without a mail sink.
	ctxutil.GetLogger(request.Context()).Debug("verification code issued",
		"user_id", user.ID,
		"code", verificationCode,
	)

	respond.Success(writer, http.StatusCreated, map[string]any{
		constants.FieldMessage: "An email with a verification code has been sent to " + user.Email,
	})
}

/*
VerifyEmail confirms email ownership and activates the account.

GET /api/users/verifyemail/{code}

Response:
  - 200: Success: Email verified
  - 404: ErrNotFound: Unknown or already-used code
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	code := requestutil.Param(request, "code")
	if code == "" {
		respond.Error(writer, request, validate.RequiredError(FieldToken, "is required"))
		return
	}

	if err := handler.authService.VerifyEmail(request.Context(), code); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Email verified successfully")
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/users/forgotpassword

Description: Opens a reset window when the account exists. The response is
identical either way so the endpoint cannot be used for account enumeration.

Request:
  - Body: forgotPasswordRequest (Email)

Response:
  - 200: Success: Generic confirmation
  - 403: ErrForbidden: Social auth account
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	resetToken, err := handler.authService.ForgotPassword(request.Context(), input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if resetToken != "" {
		ctxutil.GetLogger(request.Context()).Debug("password reset token issued")
	}

	respond.Message(writer, "You will receive a reset email if an account with that email exists")
}

/*
ResetPassword completes the password recovery flow.

PATCH /api/users/resetpassword/{token}

Request:
  - Body: resetPasswordRequest (Password, PasswordConfirm)

Response:
  - 200: Success: Password updated, all sessions ended
  - 404: ErrNotFound: Token is invalid or has expired
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Param(request, "token")

	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldToken, token).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Match(FieldPasswordConfirm, input.PasswordConfirm, input.Password, "Passwords do not match")

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Password updated successfully, please login again")
}

/*
UpdatePassword rotates the password of the authenticated user.

PATCH /api/users/updatepassword

Description: Requires the current password, then re-issues the session so the
caller keeps working while every other session is invalidated.

Request:
  - Body: updatePasswordRequest (PasswordCurrent, Password, PasswordConfirm)

Response:
  - 200: Success: New access token
  - 401: ErrUnauthorized: Current password is wrong
*/
func (handler *Handler) updatePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updatePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldPasswordCurrent, input.PasswordCurrent).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Match(FieldPasswordConfirm, input.PasswordConfirm, input.Password, "Passwords do not match")

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.UpdatePassword(request.Context(), userID, input.PasswordCurrent, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	SetSessionCookies(writer, pair, handler.tokens.AccessTTL(), handler.tokens.RefreshTTL(), handler.secureCookies)
	respond.OK(writer, map[string]any{
		FieldAccessToken: pair.AccessToken,
	})
}

// # Session Endpoints

/*
Login authenticates a user and establishes a session.

POST /api/sessions/login

Description: Verifies credentials, issues the RS256 token pair, seeds the
session cache, and injects the session cookies.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 201: Success: Access token in body, full pair in cookies
  - 401: ErrUnauthorized: Invalid credentials or unverified account
  - 403: ErrForbidden: Social auth account
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	_, pair, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	SetSessionCookies(writer, pair, handler.tokens.AccessTTL(), handler.tokens.RefreshTTL(), handler.secureCookies)
	respond.Success(writer, http.StatusCreated, map[string]any{
		FieldAccessToken: pair.AccessToken,
	})
}

/*
Refresh exchanges the refresh cookie for a brand new session.

GET /api/sessions/refresh

Description: The presented token is consumed whether or not the exchange
succeeds. On any failure except a lapsed session the cookies are cleared, so
a client holding a replayed or invalid token is logged out on the spot.

Response:
  - 200: Success: New access token, rotated cookies
  - 401: ErrUnauthorized: Missing or invalid token, or lapsed session
  - 403: ErrForbidden: Refresh token replay
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		ClearSessionCookies(writer, handler.secureCookies)
		respond.Error(writer, request, apperr.AuthenticationRequired("Could not refresh access token"))
		return
	}

	_, pair, err := handler.authService.Refresh(request.Context(), cookie.Value)
	if err != nil {
		if !apperr.HasCode(err, apperr.CodeSessionExpired) {
			ClearSessionCookies(writer, handler.secureCookies)
		}
		respond.Error(writer, request, err)
		return
	}

	SetSessionCookies(writer, pair, handler.tokens.AccessTTL(), handler.tokens.RefreshTTL(), handler.secureCookies)
	respond.OK(writer, map[string]any{
		FieldAccessToken: pair.AccessToken,
	})
}

/*
Logout terminates the current session.

GET /api/sessions/logout

Description: Evicts the session cache entry, retires any still-registered
refresh token, and clears the cookies.

Response:
  - 200: Success: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	refreshToken := ""
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
		refreshToken = cookie.Value
	}

	if err := handler.authService.Logout(request.Context(), userID, refreshToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ClearSessionCookies(writer, handler.secureCookies)
	respond.Success(writer, http.StatusOK, nil)
}
