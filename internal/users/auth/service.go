// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/selvohq/selvo/internal/platform/apperr"
	"github.com/selvohq/selvo/internal/platform/constants"
	"github.com/selvohq/selvo/internal/platform/sec"
	"github.com/selvohq/selvo/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for issuing and verifying the RS256
// token pair. Implemented by [sec.TokenService].
type TokenProvider interface {
	// Sign creates a signed JWT of the given kind for the user.
	Sign(userID string, kind sec.TokenKind) (string, error)

	// Verify parses and validates a token of the given kind. The boolean is
	// false for any malformed, mis-signed or expired token.
	Verify(tokenString string, kind sec.TokenKind) (*sec.TokenClaims, bool)

	// AccessTTL returns the configured access token lifetime.
	AccessTTL() time.Duration

	// RefreshTTL returns the configured refresh token lifetime.
	RefreshTTL() time.Duration
}

// Service implements the session and credential lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token
// issuance, or refresh logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	sessionCache   SessionCache
	registry       RefreshRegistry
	tokenProvider  TokenProvider
	passwordCost   int
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessions SessionCache,
	registry RefreshRegistry,
	tokenProv TokenProvider,
	passwordCost int,
) *Service {
	return &Service{
		userRepository: userRepo,
		sessionCache:   sessions,
		registry:       registry,
		tokenProvider:  tokenProv,
		passwordCost:   passwordCost,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new customer.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new local account.

Description: Deep-enrollment of a new customer, handling password hashing and
initial verification code state. The account stays unverified, and therefore
unable to log in, until the emailed code comes back through VerifyEmail.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - string: Plain verification code to deliver to the customer
  - error: Conflict (if the email exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, string, error) {

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.userRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, "", apperr.Conflict("An account with this email already exists")
	}

	// Prevent storing plain-text passwords. Cost comes from configuration so
	// operators can tune CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password, service.passwordCost)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// The verification code travels to the customer in plain form but is
	// stored hashed, so a database leak cannot verify accounts.
	verificationCode, err := sec.GenerateSecureToken(constants.SecureTokenLength)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_verification_code_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:                   uuid.New(),
		Name:                 input.Name,
		Email:                input.Email,
		PasswordHash:         hashedPassword,
		Role:                 sec.RoleUser,
		Verified:             false,
		VerificationCodeHash: sec.HashToken(verificationCode),
	}

	// Persist the user to the database
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, "", err
	}

	return user, verificationCode, nil
}

/*
VerifyEmail activates the account holding the presented verification code.

Parameters:
  - context: context.Context
  - code: string (Plain code from the verification link)

Returns:
  - error: apperr.NotFound for unknown or already-used codes, or storage errors
*/
func (service *Service) VerifyEmail(context context.Context, code string) error {

	// Codes are stored hashed, compare against the digest
	user, err := service.userRepository.FindByVerificationCode(context, sec.HashToken(code))
	if err != nil {
		return err
	}

	if err := service.userRepository.MarkVerified(context, user.ID); err != nil {
		return err
	}

	return nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login validates local credentials and establishes a session.

Description: Verifies identity with constant-time password comparison, then
issues a fresh token pair and seeds the session cache. Provider-bootstrapped
accounts are redirected to social sign-in instead of leaking whether their
stored hash would match.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *User: The authenticated account
  - *TokenPair: Transport-ready session tokens
  - error: Credential mismatch, verification state, or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*User, *TokenPair, error) {

	// If the user does not exist, use the same generic message as a wrong
	// password to prevent account enumeration.
	user, err := service.userRepository.FindByEmail(context, input.Email)
	if err != nil {
		return nil, nil, apperr.CredentialMismatch()
	}

	// Social accounts have no usable password hash
	if user.IsProviderAccount() {
		return nil, nil, apperr.Forbidden(MessageSocialAccount)
	}

	// Verify password hash using constant-time comparison in bcrypt to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, nil, apperr.CredentialMismatch()
	}

	if !user.Verified {
		return nil, nil, apperr.AuthenticationRequired("Account not verified")
	}

	pair, err := service.IssueTokens(context, user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

/*
IssueTokens mints a full access/refresh pair and opens the session.

Description: The three side effects happen together on every issuance path
(login, OAuth bootstrap, refresh): sign both tokens, register the refresh
token for its single future use, and write the user snapshot into the session
cache with the fixed session TTL.

Parameters:
  - context: context.Context
  - user: *User (Authenticated account)

Returns:
  - *TokenPair: Signed access and refresh tokens
  - error: Signing, registry or cache failures
*/
func (service *Service) IssueTokens(context context.Context, user *User) (*TokenPair, error) {

	accessToken, err := service.tokenProvider.Sign(user.ID, sec.KindAccess)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_sign_failed: %w", err)
	}

	refreshToken, err := service.tokenProvider.Sign(user.ID, sec.KindRefresh)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_sign_failed: %w", err)
	}

	// The registry entry lives exactly as long as the token it guards
	if err := service.registry.Register(context, refreshToken, service.tokenProvider.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("auth_service_refresh_register_failed: %w", err)
	}

	// Seed the session cache. The fixed TTL, not the token expiry, bounds the session.
	if err := service.sessionCache.Set(context, user, constants.SessionCacheTTL); err != nil {
		return nil, fmt.Errorf("auth_service_session_cache_failed: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// # Refresh Flow

/*
Refresh exchanges a one-time refresh token for a brand new session.

Description: The registry is consulted before the signature so a replayed
token is called out as such even when it would still verify. Order of checks:

 1. Consume from the registry; absence means replay.
 2. Verify the RS256 signature and expiry.
 3. Require a live session cache entry; a lapsed one ends the session.
 4. Load the account and issue a fresh pair, re-registering and re-seeding.

Parameters:
  - context: context.Context
  - refreshToken: string (Raw token from the refresh cookie)

Returns:
  - *User: The account behind the session
  - *TokenPair: Replacement tokens
  - error: TokenReplay, SessionExpired, or authentication failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*User, *TokenPair, error) {

	consumed, err := service.registry.Consume(context, refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("auth_service_refresh_consume_failed: %w", err)
	}
	if !consumed {
		return nil, nil, apperr.TokenReplay()
	}

	claims, valid := service.tokenProvider.Verify(refreshToken, sec.KindRefresh)
	if !valid {
		return nil, nil, apperr.AuthenticationRequired("Could not refresh access token")
	}

	// The session cache is authoritative: a valid token with no live session
	// entry cannot revive the session.
	cached, err := service.sessionCache.Get(context, claims.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("auth_service_session_lookup_failed: %w", err)
	}
	if cached == nil {
		return nil, nil, apperr.SessionExpired()
	}

	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		return nil, nil, apperr.AuthenticationRequired("Could not refresh access token")
	}

	pair, err := service.IssueTokens(context, user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

/*
Logout tears the session down.

Description: Removes the session cache entry and retires any still-registered
refresh token. Both removals are idempotent, so logging out twice is harmless.

Parameters:
  - context: context.Context
  - userID: string
  - refreshToken: string (May be empty when the cookie is already gone)

Returns:
  - error: Cache or registry failures
*/
func (service *Service) Logout(context context.Context, userID, refreshToken string) error {

	if refreshToken != "" {
		if _, err := service.registry.Consume(context, refreshToken); err != nil {
			return fmt.Errorf("auth_service_logout_retire_failed: %w", err)
		}
	}

	if err := service.sessionCache.Delete(context, userID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return nil
}

// # Credential Recovery

/*
ForgotPassword opens a password reset window for the account.

Description: Generates a reset token, stores only its hash with a short
expiry, and returns the plain token for delivery. A missing account yields no
token and no error, so the caller can answer identically either way.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: Plain reset token, or empty when no such account exists
  - error: Storage failures
*/
func (service *Service) ForgotPassword(context context.Context, email string) (string, error) {

	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return "", nil
		}
		return "", err
	}

	// Social accounts recover through their provider
	if user.IsProviderAccount() {
		return "", apperr.Forbidden(MessageSocialAccount)
	}

	resetToken, err := sec.GenerateSecureToken(constants.SecureTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_reset_token_failed: %w", err)
	}

	expiresAt := time.Now().Add(constants.PasswordResetTokenTTL)
	if err := service.userRepository.SetPasswordResetToken(context, user.ID, sec.HashToken(resetToken), expiresAt); err != nil {
		return "", err
	}

	return resetToken, nil
}

/*
ResetPassword completes a recovery initiated by ForgotPassword.

Description: Resolves the hashed token within its window, installs the new
password, and deletes the session cache entry so every live session has to
re-authenticate.

Parameters:
  - context: context.Context
  - token: string (Plain token from the reset link)
  - newPassword: string

Returns:
  - error: apperr.NotFound for stale or unknown tokens, or storage failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {

	user, err := service.userRepository.FindByPasswordResetToken(context, sec.HashToken(token))
	if err != nil {
		return err
	}

	hashedPassword, err := sec.HashPassword(newPassword, service.passwordCost)
	if err != nil {
		return fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, user.ID, hashedPassword); err != nil {
		return err
	}

	// Force re-authentication everywhere
	if err := service.sessionCache.Delete(context, user.ID); err != nil {
		return fmt.Errorf("auth_service_session_evict_failed: %w", err)
	}

	return nil
}

/*
UpdatePassword rotates the password of an authenticated user.

Description: Requires the current password even inside an authenticated
session, so a hijacked session cannot silently lock the owner out. On success
a fresh token pair is issued, since the change invalidates the old one.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - *TokenPair: Replacement tokens bound to the new password epoch
  - error: Credential mismatch or storage failures
*/
func (service *Service) UpdatePassword(context context.Context, userID, currentPassword, newPassword string) (*TokenPair, error) {

	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if user.IsProviderAccount() {
		return nil, apperr.Forbidden(MessageSocialAccount)
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return nil, apperr.AuthenticationRequired("Your current password is wrong")
	}

	hashedPassword, err := sec.HashPassword(newPassword, service.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, user.ID, hashedPassword); err != nil {
		return nil, err
	}

	// Issue a pair stamped after the password change so the caller's own
	// session survives the rotation.
	pair, err := service.IssueTokens(context, user)
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// # Gate Support

/*
ResolveSession resolves a verified access token claim into a live user.

Description: Backs the deserialization gate. A lapsed session cache entry
resolves to no user without error, letting optional-auth routes proceed
anonymously. A password change after token issuance is rejected outright.

Parameters:
  - context: context.Context
  - claims: *sec.TokenClaims (Already-verified access token claims)

Returns:
  - *User: The authenticated account, or nil when the session has lapsed
  - error: Password-epoch rejection or storage failures
*/
func (service *Service) ResolveSession(context context.Context, claims *sec.TokenClaims) (*User, error) {

	cached, err := service.sessionCache.Get(context, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_session_lookup_failed: %w", err)
	}
	if cached == nil {
		return nil, nil
	}

	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if claims.IssuedAt != nil && user.PasswordChangedAfter(claims.IssuedAt.Time) {
		return nil, apperr.Forbidden("User recently changed password, please login again")
	}

	return user, nil
}
