// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package auth

import (
	"context"
	"time"
)

// # Persistence Contracts

// UserRepository defines persistence for user accounts. All lookups exclude
// soft-deleted (inactive) rows.
type UserRepository interface {
	/*
		Create inserts a new local account.

		Parameters:
		  - ctx: Context for timeout and cancellation control
		  - user: Account to persist; ID, timestamps and Active are assigned here

		Returns:
		  - error: Conflict error when the email is already registered
	*/
	Create(ctx context.Context, user *User) error

	/*
		UpsertByEmail inserts a provider-bootstrapped account, or refreshes the
		name, photo and provider of an existing account with the same email.
		Upserted accounts are always marked verified.

		Parameters:
		  - ctx: Context for timeout and cancellation control
		  - user: Profile data obtained from the OAuth provider

		Returns:
		  - *User: The stored account after insert or update
		  - error: Database failure
	*/
	UpsertByEmail(ctx context.Context, user *User) (*User, error)

	// FindByID returns the active account with the given ID, or a NotFound error.
	FindByID(ctx context.Context, userID string) (*User, error)

	// FindByEmail returns the active account with the given email, or a NotFound error.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByVerificationCode returns the unverified account holding the given
	// hashed verification code, or a NotFound error.
	FindByVerificationCode(ctx context.Context, codeHash string) (*User, error)

	// FindByPasswordResetToken returns the account holding the given hashed
	// reset token whose reset window has not yet closed, or a NotFound error.
	FindByPasswordResetToken(ctx context.Context, tokenHash string) (*User, error)

	// MarkVerified flips the account to verified and clears its verification code.
	MarkVerified(ctx context.Context, userID string) error

	// SetPasswordResetToken stores a hashed reset token and its expiry on the account.
	SetPasswordResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// ClearPasswordResetToken removes a pending reset token without changing the password.
	ClearPasswordResetToken(ctx context.Context, userID string) error

	/*
		UpdatePassword replaces the password hash, clears any pending reset
		token and stamps PasswordChangedAt, invalidating all previously issued
		tokens.

		Parameters:
		  - ctx: Context for timeout and cancellation control
		  - userID: Account to update
		  - passwordHash: New bcrypt hash

		Returns:
		  - error: NotFound error when the account does not exist
	*/
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// SessionCache is the credential store consulted on every authenticated
// request. It holds a JSON snapshot of the user, keyed by user ID, with a
// fixed expiry: a missing entry means the session has lapsed regardless of
// token validity.
type SessionCache interface {
	// Set stores a snapshot of the user under its ID for the given duration,
	// resetting any previous expiry.
	Set(ctx context.Context, user *User, ttl time.Duration) error

	// Get returns the cached snapshot for the user ID, or nil without error
	// when no session exists.
	Get(ctx context.Context, userID string) (*User, error)

	// Delete removes the session snapshot, ending the session immediately.
	Delete(ctx context.Context, userID string) error
}

// RefreshRegistry records issued refresh tokens so each can be consumed
// exactly once. A token disappears from the registry the moment it is
// consumed; any later presentation of the same token is a replay.
type RefreshRegistry interface {
	// Register records a freshly issued refresh token for the given duration.
	Register(ctx context.Context, token string, ttl time.Duration) error

	/*
		Consume atomically removes the token from the registry.

		Parameters:
		  - ctx: Context for timeout and cancellation control
		  - token: The raw refresh token presented by the client

		Returns:
		  - bool: True when the token was present and has now been consumed,
		    false when it was absent (already consumed, expired, or never issued)
		  - error: Registry backend failure
	*/
	Consume(ctx context.Context, token string) (bool, error)

	// Contains reports whether the token is currently registered, without
	// consuming it.
	Contains(ctx context.Context, token string) (bool, error)
}
