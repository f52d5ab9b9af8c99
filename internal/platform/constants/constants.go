// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuers and cookie configuration.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "selvo-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// OAuthClientTimeout bounds server-to-server calls to identity providers
	// so a hung provider cannot hold the requesting connection open forever.
	OAuthClientTimeout = 15 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "selvo.store"

	// AccessTokenCookieName carries the short-lived access token.
	AccessTokenCookieName = "access-token"

	// RefreshTokenCookieName carries the single-use refresh token.
	RefreshTokenCookieName = "refresh-token"

	// LoggedInCookieName is a script-readable presence flag for the frontend.
	// It is never trusted for authorization server-side.
	LoggedInCookieName = "logged_in"

	// SessionCacheTTL is the fixed lifetime of the serialized user snapshot
	// written to the credential store on every token issuance. Its absence
	// forces re-authentication even while a JWT is still cryptographically
	// valid, which is the mechanism for server-side forced logout.
	SessionCacheTTL = 1 * time.Hour

	// PasswordResetTokenTTL bounds how long a password reset token stays usable.
	PasswordResetTokenTTL = 10 * time.Minute

	// SecureTokenLength is the byte length of random verification/reset tokens.
	SecureTokenLength = 32
)

// # Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldStatus  = "status"
	FieldMessage = "message"
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldDetails = "details"

	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	// RedisPrefixSession is the credential store namespace, keyed by user ID.
	RedisPrefixSession = "auth:session:"

	// RedisPrefixRefresh is the refresh registry namespace, keyed by token hash.
	RedisPrefixRefresh = "auth:refresh:"
)
