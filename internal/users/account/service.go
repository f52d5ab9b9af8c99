// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/selvohq/selvo/internal/platform/apperr"
	"github.com/selvohq/selvo/internal/platform/constants"
	"github.com/selvohq/selvo/internal/platform/sec"
	"github.com/selvohq/selvo/internal/users/auth"
	"github.com/selvohq/selvo/pkg/pagination"
	"github.com/selvohq/selvo/pkg/pointer"
)

// # Service Layer

// Service orchestrates business logic for profile and account administration.
//
// It keeps the session cache coherent: whenever a live account's profile or
// role changes, the cached snapshot is rewritten so the change is visible on
// the very next request instead of after the next login.
type Service struct {
	accountRepository AccountRepository
	sessionCache      auth.SessionCache
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(accountRepo AccountRepository, sessionCache auth.SessionCache, logger *slog.Logger) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessionCache:      sessionCache,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfileInput defines the mutable subset of profile fields.
type UpdateProfileInput struct {
	Name  *string
	Photo *string
}

/*
UpdateProfile applies a partial set of changes to a user's profile.

Description: Fetches the existing state, overlays the provided fields,
persists the change, and rewrites the session cache snapshot so the live
session sees the new profile immediately.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Update or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {

	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// Apply delta updates, absent fields keep their stored value
	user.Name = pointer.Fallback(input.Name, user.Name)
	user.Photo = pointer.Fallback(input.Photo, user.Photo)

	// Persist changes
	if err := service.accountRepository.UpdateProfile(context, user); err != nil {
		return nil, err
	}

	service.refreshSnapshot(context, user)
	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

/*
Deactivate performs an idempotent soft-deletion of the caller's own account.

Description: Flags the account inactive and evicts the session cache entry,
which ends every live session on the spot.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution failures
*/
func (service *Service) Deactivate(context context.Context, userID string) error {

	if err := service.accountRepository.SoftDelete(context, userID); err != nil {
		return err
	}

	// Force global sign-out for the deactivated account
	if err := service.sessionCache.Delete(context, userID); err != nil {
		return fmt.Errorf("account_service_session_evict_failed: %w", err)
	}

	service.logger.Warn("user_account_deactivated", slog.String("user_id", userID))

	return nil
}

// # Administration

/*
List returns one page of active accounts for the admin console.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []auth.User: The requested page
  - pagination.Meta: Navigation metadata
  - error: Query failures
*/
func (service *Service) List(context context.Context, params pagination.Params) ([]auth.User, pagination.Meta, error) {
	users, total, err := service.accountRepository.List(context, params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	return users, pagination.NewMeta(params.Page, params.Limit, total), nil
}

/*
UpdateRole replaces the authorization role of an account.

Description: Validates the target role, persists it, and rewrites the session
cache snapshot so a live session picks the new role up on its next request.

Parameters:
  - context: context.Context
  - userID: string
  - role: sec.UserRole

Returns:
  - error: Validation, not found or storage failures
*/
func (service *Service) UpdateRole(context context.Context, userID string, role sec.UserRole) error {

	if !role.IsValid() {
		return apperr.ValidationError("Unknown role")
	}

	if err := service.accountRepository.SetRole(context, userID, role); err != nil {
		return err
	}

	user, err := service.accountRepository.FindByID(context, userID)
	if err == nil {
		service.refreshSnapshot(context, user)
	}

	service.logger.Info("user_role_updated",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)

	return nil
}

/*
HardDelete permanently removes an account.

Description: Admin-only and irreversible. The session cache entry goes with
the row.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Not found or execution failures
*/
func (service *Service) HardDelete(context context.Context, userID string) error {

	if err := service.accountRepository.HardDelete(context, userID); err != nil {
		return err
	}

	if err := service.sessionCache.Delete(context, userID); err != nil {
		return fmt.Errorf("account_service_session_evict_failed: %w", err)
	}

	service.logger.Warn("user_account_hard_deleted", slog.String("user_id", userID))

	return nil
}

// refreshSnapshot rewrites the cached session snapshot for a live session.
// A lapsed session is left alone: rewriting it would silently revive it.
func (service *Service) refreshSnapshot(context context.Context, user *auth.User) {
	cached, err := service.sessionCache.Get(context, user.ID)
	if err != nil || cached == nil {
		return
	}
	if err := service.sessionCache.Set(context, user, constants.SessionCacheTTL); err != nil {
		service.logger.Error("session_snapshot_refresh_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}
}
