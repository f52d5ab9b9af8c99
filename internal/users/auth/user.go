// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

/*
Package auth implements the session and credential lifecycle for the Selvo
storefront API.

It owns the core identity mechanisms: password login, RS256 token issuance
and verification, the Redis-backed credential store consulted on every
authenticated request, the single-use refresh token registry, and the
deserialization gate through which all protected routes pass.

Architecture:

  - Service: Orchestrates the lifecycle (Login, Refresh, Logout, recovery).
  - Repositories: Abstracted interfaces for Postgres (users) and Redis
    (session cache, refresh registry).
  - Security: bcrypt password hashing and RSA-signed JWTs via platform/sec.

The package ensures that identity data remains consistent and secure
throughout the platform's lifecycle.
*/
package auth

import (
	"time"

	"github.com/selvohq/selvo/internal/platform/sec"
)

// # Domain Entities

// User represents a registered customer or staff member of the storefront.
//
// # Authentication Invariant
//
// Exactly one of PasswordHash or Provider drives authentication: accounts
// bootstrapped through a third-party provider never pass the local password
// check, and local accounts never carry a provider name.
type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	Photo        string       `json:"photo,omitempty"`
	Role         sec.UserRole `json:"role"`
	Verified     bool         `json:"verified"`

	// Provider is "Google" or "GitHub" for OAuth-bootstrapped accounts,
	// empty for local accounts.
	Provider string `json:"provider,omitempty"`

	// Credential recovery state. Hashed at rest, never serialized.
	VerificationCodeHash   string    `json:"-"`
	PasswordResetTokenHash string    `json:"-"`
	PasswordResetAt        time.Time `json:"-"`

	// PasswordChangedAt invalidates every token issued before it.
	PasswordChangedAt time.Time `json:"-"`

	// Active is the soft-delete flag. Inactive rows are invisible to all
	// lookups except the admin hard-delete path.
	Active bool `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsProviderAccount reports whether this account authenticates through a
// third-party OAuth provider rather than a local password.
func (user *User) IsProviderAccount() bool {
	return user.Provider != ""
}

// PasswordChangedAfter reports whether the password was changed after the
// given token issuance time. Comparison is at second precision to match the
// JWT "iat" claim resolution.
func (user *User) PasswordChangedAfter(tokenIssuedAt time.Time) bool {
	if user.PasswordChangedAt.IsZero() {
		return false
	}
	return tokenIssuedAt.Unix() < user.PasswordChangedAt.Unix()
}

// # Token Pair

// TokenPair carries one freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldPasswordConfirm = "password_confirm"
	FieldPasswordCurrent = "password_current"
	FieldToken           = "token"
	FieldAccessToken     = "accessToken"
)

// MessageSocialAccount is returned when a local credential operation is
// attempted against an OAuth-bootstrapped account.
const MessageSocialAccount = "We found your account. It looks like you registered with a social auth account. Try signing in with social auth."
