// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package account

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selvohq/selvo/internal/platform/apperr"
	"github.com/selvohq/selvo/internal/platform/sec"
	"github.com/selvohq/selvo/internal/users/auth"
	"github.com/selvohq/selvo/pkg/pagination"
	"github.com/selvohq/selvo/pkg/pointer"
)

// # Test Fixtures

// stubAccountRepository is an in-memory AccountRepository for service tests.
type stubAccountRepository struct {
	users map[string]*auth.User
}

func newStubAccountRepository() *stubAccountRepository {
	return &stubAccountRepository{users: make(map[string]*auth.User)}
}

func (repo *stubAccountRepository) add(user *auth.User) {
	user.Active = true
	clone := *user
	repo.users[user.ID] = &clone
}

func (repo *stubAccountRepository) FindByID(_ context.Context, userID string) (*auth.User, error) {
	user, found := repo.users[userID]
	if !found || !user.Active {
		return nil, apperr.NotFound("User not found")
	}
	clone := *user
	return &clone, nil
}

func (repo *stubAccountRepository) UpdateProfile(_ context.Context, user *auth.User) error {
	stored, found := repo.users[user.ID]
	if !found || !stored.Active {
		return apperr.NotFound("User not found")
	}
	stored.Name = user.Name
	stored.Photo = user.Photo
	return nil
}

func (repo *stubAccountRepository) SetRole(_ context.Context, userID string, role sec.UserRole) error {
	stored, found := repo.users[userID]
	if !found || !stored.Active {
		return apperr.NotFound("User not found")
	}
	stored.Role = role
	return nil
}

func (repo *stubAccountRepository) SoftDelete(_ context.Context, userID string) error {
	stored, found := repo.users[userID]
	if !found || !stored.Active {
		return apperr.NotFound("User not found")
	}
	stored.Active = false
	return nil
}

func (repo *stubAccountRepository) HardDelete(_ context.Context, userID string) error {
	if _, found := repo.users[userID]; !found {
		return apperr.NotFound("User not found")
	}
	delete(repo.users, userID)
	return nil
}

func (repo *stubAccountRepository) List(_ context.Context, params pagination.Params) ([]auth.User, int, error) {
	active := make([]auth.User, 0, len(repo.users))
	for _, user := range repo.users {
		if user.Active {
			active = append(active, *user)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	total := len(active)
	offset := params.Offset()
	if offset > total {
		offset = total
	}
	end := offset + params.Limit
	if end > total {
		end = total
	}
	return active[offset:end], total, nil
}

// stubSessionCache is an in-memory auth.SessionCache; TTLs are not enforced.
type stubSessionCache struct {
	entries map[string]*auth.User
}

func newStubSessionCache() *stubSessionCache {
	return &stubSessionCache{entries: make(map[string]*auth.User)}
}

func (cache *stubSessionCache) Set(_ context.Context, user *auth.User, _ time.Duration) error {
	clone := *user
	cache.entries[user.ID] = &clone
	return nil
}

func (cache *stubSessionCache) Get(_ context.Context, userID string) (*auth.User, error) {
	user, found := cache.entries[userID]
	if !found {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (cache *stubSessionCache) Delete(_ context.Context, userID string) error {
	delete(cache.entries, userID)
	return nil
}

func newTestService(t *testing.T) (*Service, *stubAccountRepository, *stubSessionCache) {
	t.Helper()

	repo := newStubAccountRepository()
	sessions := newStubSessionCache()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, sessions, logger), repo, sessions
}

func seedAccount(t *testing.T, repo *stubAccountRepository, id string, role sec.UserRole) *auth.User {
	t.Helper()
	user := &auth.User{
		ID:    id,
		Name:  "Mai Tran",
		Email: id + "@example.com",
		Role:  role,
	}
	repo.add(user)
	return user
}

// # Profile Management

/*
TestService_UpdateProfile_RefreshesLiveSnapshot applies a partial update and
checks the live session snapshot picks it up immediately.
*/
func TestService_UpdateProfile_RefreshesLiveSnapshot(t *testing.T) {
	service, repo, sessions := newTestService(t)
	ctx := context.Background()
	seeded := seedAccount(t, repo, "user-1", sec.RoleUser)

	// The user has a live session
	require.NoError(t, sessions.Set(ctx, seeded, time.Hour))

	updated, err := service.UpdateProfile(ctx, seeded.ID, UpdateProfileInput{
		Name: pointer.To("Mai T. Tran"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Mai T. Tran", updated.Name)

	// Absent fields keep their stored value
	assert.Equal(t, seeded.Photo, updated.Photo)

	cached, err := sessions.Get(ctx, seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Mai T. Tran", cached.Name)
}

/*
TestService_UpdateProfile_NeverRevivesLapsedSession updates a profile with no
live session and checks no cache entry appears.
*/
func TestService_UpdateProfile_NeverRevivesLapsedSession(t *testing.T) {
	service, repo, sessions := newTestService(t)
	ctx := context.Background()
	seeded := seedAccount(t, repo, "user-1", sec.RoleUser)

	_, err := service.UpdateProfile(ctx, seeded.ID, UpdateProfileInput{
		Photo: pointer.To("https://cdn.selvo.store/avatars/user-1.png"),
	})
	require.NoError(t, err)

	cached, err := sessions.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

/*
TestService_Deactivate evicts the session along with the soft delete.
*/
func TestService_Deactivate(t *testing.T) {
	service, repo, sessions := newTestService(t)
	ctx := context.Background()
	seeded := seedAccount(t, repo, "user-1", sec.RoleUser)
	require.NoError(t, sessions.Set(ctx, seeded, time.Hour))

	require.NoError(t, service.Deactivate(ctx, seeded.ID))

	cached, err := sessions.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)

	_, err = service.GetProfile(ctx, seeded.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

// # Administration

/*
TestService_UpdateRole_RefreshesLiveSnapshot changes a role and checks a live
session sees it on its next request, while an unknown role is rejected.
*/
func TestService_UpdateRole_RefreshesLiveSnapshot(t *testing.T) {
	service, repo, sessions := newTestService(t)
	ctx := context.Background()
	seeded := seedAccount(t, repo, "user-1", sec.RoleUser)
	require.NoError(t, sessions.Set(ctx, seeded, time.Hour))

	require.NoError(t, service.UpdateRole(ctx, seeded.ID, sec.RoleGuide))

	cached, err := sessions.Get(ctx, seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, sec.RoleGuide, cached.Role)

	err = service.UpdateRole(ctx, seeded.ID, sec.UserRole("superuser"))
	assert.True(t, apperr.HasCode(err, apperr.CodeValidationError))
}

/*
TestService_HardDelete removes the row and the session entry.
*/
func TestService_HardDelete(t *testing.T) {
	service, repo, sessions := newTestService(t)
	ctx := context.Background()
	seeded := seedAccount(t, repo, "user-1", sec.RoleUser)
	require.NoError(t, sessions.Set(ctx, seeded, time.Hour))

	require.NoError(t, service.HardDelete(ctx, seeded.ID))

	cached, err := sessions.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)

	assert.True(t, apperr.HasCode(service.HardDelete(ctx, seeded.ID), apperr.CodeNotFound))
}

/*
TestService_List pages through the accounts, soft-deleted ones excluded.
*/
func TestService_List(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"user-1", "user-2", "user-3"} {
		seedAccount(t, repo, id, sec.RoleUser)
	}
	require.NoError(t, repo.SoftDelete(ctx, "user-3"))

	users, meta, err := service.List(ctx, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 2, meta.Total)
}
