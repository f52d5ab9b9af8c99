// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/selvohq/selvo/internal/platform/apperr"
	"github.com/selvohq/selvo/internal/platform/constants"
	"github.com/selvohq/selvo/internal/platform/ctxkey"
	"github.com/selvohq/selvo/internal/platform/ctxutil"
	"github.com/selvohq/selvo/internal/platform/respond"
	"github.com/selvohq/selvo/internal/platform/sec"
)

// # Deserialization Gate

// Gate deserializes the access token on every request and enforces
// authentication and role requirements on protected routes.
//
// # Composition
//
// Deserialize runs once near the top of the router and never rejects an
// anonymous request by itself. RequireUser and RequireRole are mounted per
// route group and state their requirement explicitly, so reading the router
// shows exactly which routes demand what.
type Gate struct {
	service *Service
	tokens  TokenProvider
}

// NewGate constructs the request gate around the auth service.
func NewGate(service *Service, tokens TokenProvider) *Gate {
	return &Gate{service: service, tokens: tokens}
}

// extractAccessToken pulls the access token from the Authorization header or,
// failing that, the access token cookie.
func extractAccessToken(request *http.Request) string {
	authHeader := request.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if cookie, err := request.Cookie(constants.AccessTokenCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

// Deserialize resolves the access token into a live user on the request
// context.
//
// # Flow
//  1. Extract the token from 'Authorization: Bearer <token>' or the cookie.
//  2. If absent, the request proceeds as anonymous.
//  3. Verify the RS256 signature and expiry.
//  4. Require a live session cache entry; a lapsed one also means anonymous.
//  5. Reject tokens issued before the last password change.
//  6. Inject the [*User] into the request context for downstream use.
func (gate *Gate) Deserialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

		// ── 1. Anonymous Access ───────────────────────────────────────────
		token := extractAccessToken(request)
		if token == "" {
			next.ServeHTTP(writer, request)
			return
		}

		// ── 2. Token Verification ─────────────────────────────────────────
		claims, valid := gate.tokens.Verify(token, sec.KindAccess)
		if !valid {
			respond.Error(writer, request, apperr.AuthenticationRequired("Token is invalid or has expired"))
			return
		}

		// ── 3. Session Resolution ─────────────────────────────────────────
		user, err := gate.service.ResolveSession(request.Context(), claims)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		if user == nil {
			// Session lapsed: a bare token grants nothing
			next.ServeHTTP(writer, request)
			return
		}

		// ── 4. Context Injection ──────────────────────────────────────────
		ctx := WithUser(request.Context(), user)
		ctx = ctxutil.WithUserID(ctx, user.ID)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// RequireUser blocks requests that did not resolve to a live session.
//
// # Usage
//
// Must be registered in the router AFTER [Gate.Deserialize].
func (gate *Gate) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if UserFrom(request.Context()) == nil {
			respond.Error(writer, request, apperr.AuthenticationRequired("You are not logged in"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests whose user does not hold at least the given role.
//
// # Usage
//
// Must be registered in the router AFTER [Gate.Deserialize]. It implies
// [Gate.RequireUser], so mounting both is unnecessary.
func (gate *Gate) RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			user := UserFrom(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if user == nil {
				respond.Error(writer, request, apperr.AuthenticationRequired("You are not logged in"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !user.Role.AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("You are not allowed to perform this action"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Context Access

// WithUser stores the resolved user on the context.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ctxkey.KeyUser, user)
}

// UserFrom retrieves the resolved [*User] from the context.
//
// # Returns
//   - A pointer to the authenticated user's record.
//   - nil if the request is anonymous.
func UserFrom(ctx context.Context) *User {
	user, ok := ctx.Value(ctxkey.KeyUser).(*User)
	if !ok {
		return nil
	}
	return user
}
