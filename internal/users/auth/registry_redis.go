// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/selvohq/selvo/internal/platform/constants"
	"github.com/selvohq/selvo/internal/platform/sec"
)

// # Refresh Registry

// RedisRefreshRegistry implements RefreshRegistry using Redis.
//
// Tokens are stored under their SHA-256 digest so raw refresh tokens never
// touch Redis. Consume relies on GETDEL, which removes the key in the same
// operation that reads it: two concurrent presentations of the same token can
// never both succeed, even across multiple API instances.
type RedisRefreshRegistry struct {
	client *redis.Client
}

// NewRefreshRegistry creates a new Redis-backed RefreshRegistry.
func NewRefreshRegistry(client *redis.Client) *RedisRefreshRegistry {
	return &RedisRefreshRegistry{client: client}
}

// registryKey derives the Redis key for a raw refresh token.
func registryKey(token string) string {
	return fmt.Sprintf("%s%s", constants.RedisPrefixRefresh, sec.HashToken(token))
}

/*
Register records a freshly issued refresh token.

Description: The key expires together with the token itself, so the registry
never accumulates entries for tokens that could no longer verify anyway.

Parameters:
  - context: context.Context
  - token: string (Raw refresh token)
  - ttl: time.Duration (Refresh token lifetime)

Returns:
  - error: Storage failures
*/
func (registry *RedisRefreshRegistry) Register(context context.Context, token string, ttl time.Duration) error {
	if err := registry.client.Set(context, registryKey(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_refresh_registry_register_failed: %w", err)
	}
	return nil
}

/*
Consume atomically removes the token from the registry.

Parameters:
  - context: context.Context
  - token: string (Raw refresh token presented by the client)

Returns:
  - bool: True when this call removed the entry, false when it was absent
  - error: Connectivity failures
*/
func (registry *RedisRefreshRegistry) Consume(context context.Context, token string) (bool, error) {
	err := registry.client.GetDel(context, registryKey(token)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis_refresh_registry_consume_failed: %w", err)
	}
	return true, nil
}

/*
Contains reports whether the token is currently registered.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - bool: Presence of the token
  - error: Connectivity failures
*/
func (registry *RedisRefreshRegistry) Contains(context context.Context, token string) (bool, error) {
	count, err := registry.client.Exists(context, registryKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis_refresh_registry_contains_failed: %w", err)
	}
	return count > 0, nil
}
