// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces (e.g. the auth package's TokenProvider).
package sec

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/selvohq/selvo/pkg/uuid"
)

// TokenKind selects between the two independent RSA key pairs.
type TokenKind string

const (
	// KindAccess selects the short-lived access token key pair.
	KindAccess TokenKind = "access"

	// KindRefresh selects the longer-lived refresh token key pair.
	KindRefresh TokenKind = "refresh"
)

// TokenClaims is the payload embedded inside every Selvo JWT.
//
// # Claim Shape
//
// The user identifier travels under the "user" claim; issued-at and expiry
// use the registered "iat"/"exp" claims. Verification consumers compare
// "iat" against the account's last password change to invalidate tokens
// issued before a credential rotation.
type TokenClaims struct {
	jwt.RegisteredClaims

	UserID string `json:"user"`
}

// keyPair holds one RSA signing pair plus its token lifetime.
type keyPair struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
	ttl     time.Duration
}

// TokenService signs and verifies RS256 JWTs using per-kind RSA key pairs.
type TokenService struct {
	access  keyPair
	refresh keyPair
	issuer  string
}

// KeyConfig carries the base64-encoded PEM material and lifetimes for both
// token kinds. Keys are supplied out-of-band via environment configuration.
type KeyConfig struct {
	AccessPrivateKey  string
	AccessPublicKey   string
	RefreshPrivateKey string
	RefreshPublicKey  string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	Issuer string
}

// NewTokenService decodes and parses all four keys up front so a
// misconfigured deployment fails at startup, not on the first login.
func NewTokenService(cfg KeyConfig) (*TokenService, error) {
	access, err := parseKeyPair(cfg.AccessPrivateKey, cfg.AccessPublicKey, cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("sec: access key pair: %w", err)
	}

	refresh, err := parseKeyPair(cfg.RefreshPrivateKey, cfg.RefreshPublicKey, cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sec: refresh key pair: %w", err)
	}

	return &TokenService{
		access:  access,
		refresh: refresh,
		issuer:  cfg.Issuer,
	}, nil
}

// parseKeyPair decodes a base64 PEM pair into usable RSA keys.
func parseKeyPair(privateB64, publicB64 string, ttl time.Duration) (keyPair, error) {
	privatePEM, err := base64.StdEncoding.DecodeString(privateB64)
	if err != nil {
		return keyPair{}, fmt.Errorf("decode private key base64: %w", err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return keyPair{}, fmt.Errorf("parse private key PEM: %w", err)
	}

	publicPEM, err := base64.StdEncoding.DecodeString(publicB64)
	if err != nil {
		return keyPair{}, fmt.Errorf("decode public key base64: %w", err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return keyPair{}, fmt.Errorf("parse public key PEM: %w", err)
	}

	return keyPair{private: privateKey, public: publicKey, ttl: ttl}, nil
}

// pair returns the key pair for the given kind.
func (service *TokenService) pair(kind TokenKind) keyPair {
	if kind == KindRefresh {
		return service.refresh
	}
	return service.access
}

// # Issuance

// Sign creates a signed token string carrying the user identifier, with the
// expiry window of the selected kind.
func (service *TokenService) Sign(userID string, kind TokenKind) (string, error) {
	currentTime := time.Now()
	selected := service.pair(kind)

	// A unique jti per issuance keeps tokens distinct even when the same
	// user is signed twice within one second: iat/exp only carry second
	// resolution and RS256 signing is deterministic, so without it two
	// back-to-back tokens would be byte-identical. The refresh registry
	// depends on every issued token being unique.
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(selected.ttl)),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(selected.private)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign %s token: %w", kind, err)
	}

	return signedToken, nil
}

// # Verification

// Verify checks the signature and expiry of a token string against the
// public key of the selected kind.
//
// Verification is a pure query: it returns (nil, false) on any failure —
// bad signature, wrong key, malformed token, or expiry — and never returns
// an error or panics. Callers branch on the boolean outcome.
func (service *TokenService) Verify(tokenString string, kind TokenKind) (*TokenClaims, bool) {
	selected := service.pair(kind)

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return selected.public, nil
	})

	if err != nil {
		return nil, false
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, false
	}

	return claims, true
}

// VerifyAccess verifies a token against the access public key.
func (service *TokenService) VerifyAccess(tokenString string) (*TokenClaims, bool) {
	return service.Verify(tokenString, KindAccess)
}

// VerifyRefresh verifies a token against the refresh public key.
func (service *TokenService) VerifyRefresh(tokenString string) (*TokenClaims, bool) {
	return service.Verify(tokenString, KindRefresh)
}

// # Lifetimes

// AccessTTL returns the configured access token lifetime.
func (service *TokenService) AccessTTL() time.Duration { return service.access.ttl }

// RefreshTTL returns the configured refresh token lifetime.
func (service *TokenService) RefreshTTL() time.Duration { return service.refresh.ttl }
