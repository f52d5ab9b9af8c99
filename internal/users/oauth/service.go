// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package oauth

import (
	"context"
	"fmt"

	"github.com/selvohq/selvo/internal/platform/apperr"
	"github.com/selvohq/selvo/internal/platform/sec"
	"github.com/selvohq/selvo/internal/users/auth"
	"github.com/selvohq/selvo/pkg/uuid"
)

// # Contracts & Types

// Provider is the contract a social sign-in adapter fulfills.
type Provider interface {
	// Name returns the provider label stored on bootstrapped accounts.
	Name() string

	// Profile exchanges an authorization code for a normalized identity.
	Profile(ctx context.Context, code string) (*Profile, error)
}

// Service bootstraps sessions from social provider identities.
//
// It owns no token or cache logic of its own: once a provider yields a
// verified profile, account upsert and issuance run through the auth domain
// exactly as they do for local logins.
type Service struct {
	providers   map[string]Provider
	users       auth.UserRepository
	authService *auth.Service
}

// NewService constructs the bootstrap [Service] over the given adapters.
func NewService(users auth.UserRepository, authService *auth.Service, providers ...Provider) *Service {
	registry := make(map[string]Provider, len(providers))
	for _, provider := range providers {
		registry[provider.Name()] = provider
	}
	return &Service{
		providers:   registry,
		users:       users,
		authService: authService,
	}
}

/*
Bootstrap turns a provider authorization code into a live session.

Description: Resolves the adapter, exchanges the code for a profile, upserts
the account with the provider label (marking it verified, since the provider
vouches for the email), and issues a full token pair.

Parameters:
  - ctx: context.Context
  - providerName: string (One of the registered Provider names)
  - code: string (Authorization code from the consent redirect)

Returns:
  - *auth.User: The bootstrapped account
  - *auth.TokenPair: Fresh session tokens
  - error: Provider, upsert or issuance failures
*/
func (service *Service) Bootstrap(ctx context.Context, providerName, code string) (*auth.User, *auth.TokenPair, error) {

	provider, registered := service.providers[providerName]
	if !registered {
		return nil, nil, apperr.NotFound("Unknown sign-in provider")
	}

	profile, err := provider.Profile(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	candidate := &auth.User{
		ID:       uuid.New(),
		Name:     profile.Name,
		Email:    profile.Email,
		Photo:    profile.Photo,
		Role:     sec.RoleUser,
		Provider: profile.Provider,
	}

	user, err := service.users.UpsertByEmail(ctx, candidate)
	if err != nil {
		return nil, nil, fmt.Errorf("oauth_bootstrap_upsert_failed: %w", err)
	}

	pair, err := service.authService.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}
