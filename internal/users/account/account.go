// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

/*
Package account implements profile and account administration for the Selvo
storefront.

It covers the self-service surface (view, update and deactivate the own
profile) and the admin surface (list accounts, change roles, hard-delete).
Authentication itself lives in the auth package; this package always operates
on an already-resolved user.
*/
package account

import (
	"context"

	"github.com/selvohq/selvo/internal/platform/sec"
	"github.com/selvohq/selvo/internal/users/auth"
	"github.com/selvohq/selvo/pkg/pagination"
)

// # Persistence Contracts

// AccountRepository defines the persistence operations of account
// administration, beyond what the auth domain needs for login.
type AccountRepository interface {
	// FindByID returns the active account with the given ID, or a NotFound error.
	FindByID(ctx context.Context, userID string) (*auth.User, error)

	// UpdateProfile persists the mutable profile fields (name, photo).
	UpdateProfile(ctx context.Context, user *auth.User) error

	// SetRole replaces the authorization role of the account.
	SetRole(ctx context.Context, userID string, role sec.UserRole) error

	// SoftDelete deactivates the account, hiding it from every lookup.
	SoftDelete(ctx context.Context, userID string) error

	// HardDelete permanently removes the account row, active or not.
	HardDelete(ctx context.Context, userID string) error

	/*
		List returns one page of active accounts, newest first.

		Parameters:
		  - ctx: Context for timeout and cancellation control
		  - params: Page number and size

		Returns:
		  - []auth.User: The requested page
		  - int: Total number of active accounts
		  - error: Database failures
	*/
	List(ctx context.Context, params pagination.Params) ([]auth.User, int, error)
}

// # Field Identifiers

// Field names for validation in the account domain.
const (
	FieldName  = "name"
	FieldPhoto = "photo"
	FieldRole  = "role"
	FieldID    = "id"
)
