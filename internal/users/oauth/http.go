// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package oauth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/selvohq/selvo/internal/platform/apperr"
	"github.com/selvohq/selvo/internal/platform/ctxutil"
	"github.com/selvohq/selvo/internal/platform/respond"
	"github.com/selvohq/selvo/internal/users/auth"
)

// # Definitions & Constructors

// Handler implements the provider callback endpoints.
//
// # Redirect Contract
//
// These endpoints are landed on by a browser mid-consent-flow, so failures
// after the code check redirect back into the frontend instead of rendering
// JSON; the detail stays in the server log.
type Handler struct {
	bootstrapService *Service
	tokens           auth.TokenProvider
	origin           string
	secureCookies    bool
}

// NewHandler constructs a new callback [Handler].
func NewHandler(service *Service, tokens auth.TokenProvider, origin string, secureCookies bool) *Handler {
	return &Handler{
		bootstrapService: service,
		tokens:           tokens,
		origin:           origin,
		secureCookies:    secureCookies,
	}
}

// Routes returns a [chi.Router] with one callback per registered provider.
//
// # Endpoints
//   - GET /google : Google consent redirect target.
//   - GET /github : GitHub consent redirect target.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/google", handler.callback(ProviderGoogle))
	router.Get("/github", handler.callback(ProviderGitHub))

	return router
}

/*
callback builds the consent-redirect handler for one provider.

GET /api/sessions/oauth/{provider}?code=...&state=...

Description: Consumes the authorization code, bootstraps the session, sets
the session cookies and bounces the browser back into the frontend at the
path carried in state.

Response:
  - 302: Redirect to the frontend (state path on success, /oauth/error on failure)
  - 401: ErrUnauthorized: Authorization code not provided
*/
func (handler *Handler) callback(providerName string) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		query := request.URL.Query()

		// The consent screen redirects here with ?error=... when the customer
		// denies access. Send them back to the login page.
		if query.Get("error") != "" {
			http.Redirect(writer, request, handler.origin+"/login", http.StatusFound)
			return
		}

		code := query.Get("code")
		if code == "" {
			respond.Error(writer, request, apperr.AuthenticationRequired("Authorization code not provided!"))
			return
		}

		user, pair, err := handler.bootstrapService.Bootstrap(request.Context(), providerName, code)
		if err != nil {
			ctxutil.GetLogger(request.Context()).Error("social sign-in bootstrap failed",
				"provider", providerName,
				"error", err,
			)
			http.Redirect(writer, request, handler.origin+"/oauth/error", http.StatusFound)
			return
		}

		ctxutil.GetLogger(request.Context()).Info("social sign-in completed",
			"provider", providerName,
			"user_id", user.ID,
		)

		auth.SetSessionCookies(writer, pair, handler.tokens.AccessTTL(), handler.tokens.RefreshTTL(), handler.secureCookies)
		http.Redirect(writer, request, handler.origin+sanitizeStatePath(query.Get("state")), http.StatusFound)
	}
}

// sanitizeStatePath keeps the post-login redirect inside the frontend origin.
// Anything that is not a plain absolute path falls back to the root.
func sanitizeStatePath(state string) string {
	if state == "" || !strings.HasPrefix(state, "/") || strings.HasPrefix(state, "//") {
		return "/"
	}
	return state
}
