// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selvohq/selvo/internal/platform/apperr"
	"github.com/selvohq/selvo/internal/platform/sec"
)

// # Test Fixtures

// stubUserRepository is an in-memory UserRepository for service tests.
type stubUserRepository struct {
	users map[string]*User // keyed by ID
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{users: make(map[string]*User)}
}

func (repo *stubUserRepository) Create(_ context.Context, user *User) error {
	for _, existing := range repo.users {
		if existing.Email == user.Email {
			return apperr.Conflict("An account with this email already exists")
		}
	}
	user.Active = true
	clone := *user
	repo.users[user.ID] = &clone
	return nil
}

func (repo *stubUserRepository) UpsertByEmail(_ context.Context, user *User) (*User, error) {
	for _, existing := range repo.users {
		if existing.Email == user.Email {
			existing.Name = user.Name
			existing.Photo = user.Photo
			existing.Provider = user.Provider
			existing.Verified = true
			clone := *existing
			return &clone, nil
		}
	}
	user.Active = true
	user.Verified = true
	clone := *user
	repo.users[user.ID] = &clone
	result := clone
	return &result, nil
}

func (repo *stubUserRepository) FindByID(_ context.Context, userID string) (*User, error) {
	user, found := repo.users[userID]
	if !found || !user.Active {
		return nil, apperr.NotFound("User not found")
	}
	clone := *user
	return &clone, nil
}

func (repo *stubUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, user := range repo.users {
		if user.Email == email && user.Active {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User not found with this email")
}

func (repo *stubUserRepository) FindByVerificationCode(_ context.Context, codeHash string) (*User, error) {
	for _, user := range repo.users {
		if user.VerificationCodeHash == codeHash && !user.Verified && user.Active {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Could not verify email")
}

func (repo *stubUserRepository) FindByPasswordResetToken(_ context.Context, tokenHash string) (*User, error) {
	for _, user := range repo.users {
		if user.PasswordResetTokenHash == tokenHash && user.PasswordResetAt.After(time.Now()) && user.Active {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Token is invalid or has expired")
}

func (repo *stubUserRepository) MarkVerified(_ context.Context, userID string) error {
	user, found := repo.users[userID]
	if !found {
		return apperr.NotFound("User not found")
	}
	user.Verified = true
	user.VerificationCodeHash = ""
	return nil
}

func (repo *stubUserRepository) SetPasswordResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	user, found := repo.users[userID]
	if !found {
		return apperr.NotFound("User not found")
	}
	user.PasswordResetTokenHash = tokenHash
	user.PasswordResetAt = expiresAt
	return nil
}

func (repo *stubUserRepository) ClearPasswordResetToken(_ context.Context, userID string) error {
	user, found := repo.users[userID]
	if !found {
		return apperr.NotFound("User not found")
	}
	user.PasswordResetTokenHash = ""
	user.PasswordResetAt = time.Time{}
	return nil
}

func (repo *stubUserRepository) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	user, found := repo.users[userID]
	if !found || !user.Active {
		return apperr.NotFound("User not found")
	}
	user.PasswordHash = passwordHash
	user.PasswordResetTokenHash = ""
	user.PasswordResetAt = time.Time{}
	user.PasswordChangedAt = time.Now()
	return nil
}

// stubSessionCache is an in-memory SessionCache; TTLs are not enforced.
type stubSessionCache struct {
	entries map[string]*User
}

func newStubSessionCache() *stubSessionCache {
	return &stubSessionCache{entries: make(map[string]*User)}
}

func (cache *stubSessionCache) Set(_ context.Context, user *User, _ time.Duration) error {
	clone := *user
	cache.entries[user.ID] = &clone
	return nil
}

func (cache *stubSessionCache) Get(_ context.Context, userID string) (*User, error) {
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

// newTestTokens builds a real RS256 TokenService over throwaway keys.
func newTestTokens(t *testing.T) *sec.TokenService {
	t.Helper()

	encodePair := func() (string, string) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		privatePEM := pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(key),
		})
		publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		require.NoError(t, err)
		publicPEM := pem.EncodeToMemory(&pem.Block{
			Type:  "PUBLIC KEY",
			Bytes: publicDER,
		})
		return base64.StdEncoding.EncodeToString(privatePEM), base64.StdEncoding.EncodeToString(publicPEM)
	}

	accessPriv, accessPub := encodePair()
	refreshPriv, refreshPub := encodePair()

	tokens, err := sec.NewTokenService(sec.KeyConfig{
		AccessPrivateKey:  accessPriv,
		AccessPublicKey:   accessPub,
		RefreshPrivateKey: refreshPriv,
		RefreshPublicKey:  refreshPub,
		AccessTTL:         30 * time.Minute,
		RefreshTTL:        60 * time.Minute,
		Issuer:            "selvo.store",
	})
	require.NoError(t, err)
	return tokens
}

// testHarness bundles the service and its collaborators for assertions.
type testHarness struct {
	service  *Service
	users    *stubUserRepository
	sessions *stubSessionCache
	registry *MemoryRefreshRegistry
	tokens   *sec.TokenService
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	users := newStubUserRepository()
	sessions := newStubSessionCache()
	registry := NewMemoryRefreshRegistry()
	tokens := newTestTokens(t)

	return &testHarness{
		service:  NewService(users, sessions, registry, tokens, 4),
		users:    users,
		sessions: sessions,
		registry: registry,
		tokens:   tokens,
	}
}

// seedVerifiedUser registers and verifies a local account.
func (harness *testHarness) seedVerifiedUser(t *testing.T, email, password string) *User {
	t.Helper()
	ctx := context.Background()

	user, code, err := harness.service.Register(ctx, RegisterInput{
		Name:     "Test Customer",
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	require.NoError(t, harness.service.VerifyEmail(ctx, code))

	return user
}

// # Registration

/*
TestService_Register_And_VerifyEmail walks the enrollment happy path.
*/
func TestService_Register_And_VerifyEmail(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()

	user, code, err := harness.service.Register(ctx, RegisterInput{
		Name:     "Mai Tran",
		Email:    "mai@example.com",
		Password: "hunter22hunter22",
	})
	require.NoError(t, err)
	require.NotEmpty(t, code)
	assert.False(t, user.Verified)
	assert.Equal(t, sec.RoleUser, user.Role)

	// The plain code never lands in storage
	stored, err := harness.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, code, stored.VerificationCodeHash)
	assert.Equal(t, sec.HashToken(code), stored.VerificationCodeHash)

	require.NoError(t, harness.service.VerifyEmail(ctx, code))

	verified, err := harness.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Empty(t, verified.VerificationCodeHash)
}

/*
TestService_Register_DuplicateEmail rejects a second enrollment for the same
address.
*/
func TestService_Register_DuplicateEmail(t *testing.T) {
	harness := newTestHarness(t)
	harness.seedVerifiedUser(t, "mai@example.com", "hunter22hunter22")

	_, _, err := harness.service.Register(context.Background(), RegisterInput{
		Name:     "Impostor",
		Email:    "mai@example.com",
		Password: "different-password",
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
}

// # Login

/*
TestService_Login_Success checks that a login issues a verifiable pair,
registers the refresh token and seeds the session cache.
*/
func TestService_Login_Success(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()
	seeded := harness.seedVerifiedUser(t, "mai@example.com", "hunter22hunter22")

	user, pair, err := harness.service.Login(ctx, LoginInput{
		Email:    "mai@example.com",
		Password: "hunter22hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)

	// Both tokens verify under their own key pair
	accessClaims, valid := harness.tokens.Verify(pair.AccessToken, sec.KindAccess)
	require.True(t, valid)
	assert.Equal(t, seeded.ID, accessClaims.UserID)

	_, valid = harness.tokens.Verify(pair.RefreshToken, sec.KindRefresh)
	require.True(t, valid)

	// The refresh token is registered for exactly one future use
	present, err := harness.registry.Contains(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, present)

	// The session cache holds the user snapshot
	cached, err := harness.sessions.Get(ctx, seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "mai@example.com", cached.Email)
}

/*
TestService_Login_WrongPassword uses the generic mismatch for a bad password
and an unknown account alike.
*/
func TestService_Login_WrongPassword(t *testing.T) {
	harness := newTestHarness(t)
	harness.seedVerifiedUser(t, "mai@example.com", "hunter22hunter22")
	ctx := context.Background()

	_, _, err := harness.service.Login(ctx, LoginInput{Email: "mai@example.com", Password: "wrong"})
	assert.True(t, apperr.HasCode(err, apperr.CodeCredentialMismatch))

	_, _, err = harness.service.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever"})
	assert.True(t, apperr.HasCode(err, apperr.CodeCredentialMismatch))
}

/*
TestService_Login_ProviderAccount routes social accounts away from the local
password path.
*/
func TestService_Login_ProviderAccount(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()

	_, err := harness.users.UpsertByEmail(ctx, &User{
		ID:       "social-1",
		Name:     "Social User",
		Email:    "social@example.com",
		Provider: "Google",
		Role:     sec.RoleUser,
	})
	require.NoError(t, err)

	_, _, err = harness.service.Login(ctx, LoginInput{Email: "social@example.com", Password: "anything"})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	assert.Contains(t, err.Error(), "social auth")
}

/*
TestService_Login_Unverified blocks accounts that never confirmed their email.
*/
func TestService_Login_Unverified(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()

	_, _, err := harness.service.Register(ctx, RegisterInput{
		Name:     "Pending",
		Email:    "pending@example.com",
		Password: "hunter22hunter22",
	})
	require.NoError(t, err)

	_, _, err = harness.service.Login(ctx, LoginInput{Email: "pending@example.com", Password: "hunter22hunter22"})
	assert.True(t, apperr.HasCode(err, apperr.CodeAuthenticationRequired))
}

// # Refresh

/*
TestService_Refresh_RotatesPair exchanges a refresh token and checks the old
one is gone while the new one is registered.
*/
func TestService_Refresh_RotatesPair(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()
	harness.seedVerifiedUser(t, "mai@example.com", "hunter22hunter22")

	_, first, err := harness.service.Login(ctx, LoginInput{Email: "mai@example.com", Password: "hunter22hunter22"})
	require.NoError(t, err)

	user, second, err := harness.service.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "mai@example.com", user.Email)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The consumed token is gone, the replacement is live
	oldPresent, err := harness.registry.Contains(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.False(t, oldPresent)

	newPresent, err := harness.registry.Contains(ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.True(t, newPresent)
}

/*
TestService_Refresh_Replay presents the same refresh token twice; the second
attempt is called out as a replay even though the signature still verifies.
*/
func TestService_Refresh_Replay(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()
	harness.seedVerifiedUser(t, "mai@example.com", "hunter22hunter22")

	_, pair, err := harness.service.Login(ctx, LoginInput{Email: "mai@example.com", Password: "hunter22hunter22"})
	require.NoError(t, err)

	_, _, err = harness.service.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	_, _, err = harness.service.Refresh(ctx, pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeTokenReplay))
	assert.Equal(t, "Access token can only be refreshed once", err.Error())
}

/*
TestService_Refresh_LapsedSession verifies that a valid, registered token
cannot revive a session whose cache entry is gone.
*/
func TestService_Refresh_LapsedSession(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()
	seeded := harness.seedVerifiedUser(t, "mai@example.com", "hunter22hunter22")

	_, pair, err := harness.service.Login(ctx, LoginInput{Email: "mai@example.com", Password: "hunter22hunter22"})
	require.NoError(t, err)

	// Simulate the fixed TTL lapsing
	require.NoError(t, harness.sessions.Delete(ctx, seeded.ID))

	_, _, err = harness.service.Refresh(ctx, pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeSessionExpired))
	assert.Equal(t, "Session has expired, login again", err.Error())
}

/*
TestService_Refresh_WrongKindToken registers an access token as if it were a
refresh token; consumption succeeds but verification must fail.
*/
func TestService_Refresh_WrongKindToken(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()
	seeded := harness.seedVerifiedUser(t, "mai@example.com", "hunter22hunter22")

	accessToken, err := harness.tokens.Sign(seeded.ID, sec.KindAccess)
	require.NoError(t, err)
	require.NoError(t, harness.registry.Register(ctx, accessToken, time.Hour))

	_, _, err = harness.service.Refresh(ctx, accessToken)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeAuthenticationRequired))
}

// # Logout

/*
TestService_Logout ends the session and retires the outstanding refresh token.
*/
func TestService_Logout(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()
	seeded := harness.seedVerifiedUser(t, "mai@example.com", "hunter22hunter22")

	_, pair, err := harness.service.Login(ctx, LoginInput{Email: "mai@example.com", Password: "hunter22hunter22"})
	require.NoError(t, err)

	require.NoError(t, harness.service.Logout(ctx, seeded.ID, pair.RefreshToken))

	cached, err := harness.sessions.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)

	present, err := harness.registry.Contains(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.False(t, present)

	// Logging out twice is harmless
	require.NoError(t, harness.service.Logout(ctx, seeded.ID, pair.RefreshToken))
}

// # Credential Recovery

/*
TestService_PasswordReset_Flow walks forgot/reset end to end.
*/
func TestService_PasswordReset_Flow(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()
	seeded := harness.seedVerifiedUser(t, "mai@example.com", "hunter22hunter22")

	// Open a session so the reset can be seen ending it
	_, _, err := harness.service.Login(ctx, LoginInput{Email: "mai@example.com", Password: "hunter22hunter22"})
	require.NoError(t, err)

	resetToken, err := harness.service.ForgotPassword(ctx, "mai@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, resetToken)

	require.NoError(t, harness.service.ResetPassword(ctx, resetToken, "brand-new-password"))

	// Session is gone, old password fails, new one works
	cached, err := harness.sessions.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)

	_, _, err = harness.service.Login(ctx, LoginInput{Email: "mai@example.com", Password: "hunter22hunter22"})
	assert.True(t, apperr.HasCode(err, apperr.CodeCredentialMismatch))

	_, _, err = harness.service.Login(ctx, LoginInput{Email: "mai@example.com", Password: "brand-new-password"})
	assert.NoError(t, err)
}

/*
TestService_ForgotPassword_UnknownEmail yields no token and no error, so the
endpoint can answer identically either way.
*/
func TestService_ForgotPassword_UnknownEmail(t *testing.T) {
	harness := newTestHarness(t)

	token, err := harness.service.ForgotPassword(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)
}

/*
TestService_ResetPassword_StaleToken rejects a token whose window has closed.
*/
func TestService_ResetPassword_StaleToken(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()
	seeded := harness.seedVerifiedUser(t, "mai@example.com", "hunter22hunter22")

	resetToken, err := harness.service.ForgotPassword(ctx, "mai@example.com")
	require.NoError(t, err)

	// Close the window manually
	require.NoError(t, harness.users.SetPasswordResetToken(ctx, seeded.ID,
		sec.HashToken(resetToken), time.Now().Add(-1*time.Minute)))

	err = harness.service.ResetPassword(ctx, resetToken, "whatever-new")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

// # Session Resolution

/*
TestService_ResolveSession_PasswordEpoch rejects tokens issued before the last
password change.
*/
func TestService_ResolveSession_PasswordEpoch(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()
	seeded := harness.seedVerifiedUser(t, "mai@example.com", "hunter22hunter22")

	_, pair, err := harness.service.Login(ctx, LoginInput{Email: "mai@example.com", Password: "hunter22hunter22"})
	require.NoError(t, err)

	claims, valid := harness.tokens.Verify(pair.AccessToken, sec.KindAccess)
	require.True(t, valid)

	// Resolves while the password epoch matches
	user, err := harness.service.ResolveSession(ctx, claims)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, seeded.ID, user.ID)

	// Move the password change after the token issuance
	stored := harness.users.users[seeded.ID]
	stored.PasswordChangedAt = claims.IssuedAt.Add(1 * time.Minute)

	_, err = harness.service.ResolveSession(ctx, claims)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
}

/*
TestService_ResolveSession_Lapsed resolves to an anonymous outcome when the
cache entry is gone.
*/
func TestService_ResolveSession_Lapsed(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()
	seeded := harness.seedVerifiedUser(t, "mai@example.com", "hunter22hunter22")

	_, pair, err := harness.service.Login(ctx, LoginInput{Email: "mai@example.com", Password: "hunter22hunter22"})
	require.NoError(t, err)

	claims, valid := harness.tokens.Verify(pair.AccessToken, sec.KindAccess)
	require.True(t, valid)

	require.NoError(t, harness.sessions.Delete(ctx, seeded.ID))

	user, err := harness.service.ResolveSession(ctx, claims)
	require.NoError(t, err)
	assert.Nil(t, user)
}

// # Password Rotation

/*
TestService_UpdatePassword_RotatesSession requires the current password and
issues a pair stamped after the change.
*/
func TestService_UpdatePassword_RotatesSession(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()
	seeded := harness.seedVerifiedUser(t, "mai@example.com", "hunter22hunter22")

	_, _, err := harness.service.Login(ctx, LoginInput{Email: "mai@example.com", Password: "hunter22hunter22"})
	require.NoError(t, err)

	_, err = harness.service.UpdatePassword(ctx, seeded.ID, "wrong-current", "next-password-1")
	assert.True(t, apperr.HasCode(err, apperr.CodeAuthenticationRequired))

	pair, err := harness.service.UpdatePassword(ctx, seeded.ID, "hunter22hunter22", "next-password-1")
	require.NoError(t, err)

	// The fresh pair resolves against the new password epoch
	claims, valid := harness.tokens.Verify(pair.AccessToken, sec.KindAccess)
	require.True(t, valid)
	user, err := harness.service.ResolveSession(ctx, claims)
	require.NoError(t, err)
	assert.NotNil(t, user)

	// And the new password is the one that logs in
	_, _, err = harness.service.Login(ctx, LoginInput{Email: "mai@example.com", Password: "next-password-1"})
	assert.NoError(t, err)
}
