// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Selvo API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8000"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Origin is the public URL of the storefront SPA. OAuth redirects and
	// CORS decisions are scoped to it.
	Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis) — credential store and refresh registry
	RedisURL string `env:"REDIS_URL,required"`

	// Signing keys: base64-encoded PEM, one RSA pair per token type.
	AccessTokenPrivateKey  string `env:"ACCESS_TOKEN_PRIVATE_KEY,required"`
	AccessTokenPublicKey   string `env:"ACCESS_TOKEN_PUBLIC_KEY,required"`
	RefreshTokenPrivateKey string `env:"REFRESH_TOKEN_PRIVATE_KEY,required"`
	RefreshTokenPublicKey  string `env:"REFRESH_TOKEN_PUBLIC_KEY,required"`

	// Token lifetimes, expressed in minutes and independently configurable.
	AccessTokenExpiresIn  int `env:"ACCESS_TOKEN_EXPIRES_IN"  envDefault:"30"`
	RefreshTokenExpiresIn int `env:"REFRESH_TOKEN_EXPIRES_IN" envDefault:"60"`

	// PasswordCost is the bcrypt cost factor for password hashing.
	PasswordCost int `env:"PASSWORD_COST" envDefault:"12"`

	// OAuth provider credentials
	GoogleClientID      string `env:"GOOGLE_OAUTH_CLIENT_ID"`
	GoogleClientSecret  string `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	GoogleOAuthRedirect string `env:"GOOGLE_OAUTH_REDIRECT_URL"`
	GitHubClientID      string `env:"GITHUB_OAUTH_CLIENT_ID"`
	GitHubClientSecret  string `env:"GITHUB_OAUTH_CLIENT_SECRET"`
	GitHubOAuthRedirect string `env:"GITHUB_OAUTH_REDIRECT_URL"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// AccessTokenTTL returns the access token lifetime as a [time.Duration].
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpiresIn) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime as a [time.Duration].
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpiresIn) * time.Minute
}

// FrontendOrigin returns the public storefront origin used for CORS and
// OAuth redirects.
func (c *Config) FrontendOrigin() string {
	return c.Origin
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
