// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/selvohq/selvo/internal/platform/constants"
	"github.com/selvohq/selvo/internal/platform/sec"
)

// # Session Cache

// RedisSessionCache implements SessionCache using Redis.
//
// Each entry holds a JSON snapshot of the user at login or refresh time,
// keyed by user ID. The entry's expiry is the authoritative session length:
// once it lapses, a valid refresh token alone cannot revive the session.
type RedisSessionCache struct {
	client *redis.Client
}

// NewSessionCache creates a new Redis-backed SessionCache.
func NewSessionCache(client *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{client: client}
}

// sessionSnapshot is the cached projection of a User. Credential recovery
// fields stay out of the cache on purpose.
type sessionSnapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Photo     string    `json:"photo,omitempty"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

/*
Set stores a snapshot of the user under its ID with the given TTL.

Description: A subsequent Set for the same user replaces the snapshot and
resets the expiry, which is how refresh extends a session.

Parameters:
  - context: context.Context
  - user: *User (Snapshot source)
  - ttl: time.Duration

Returns:
  - error: Serialization or storage failures
*/
func (cache *RedisSessionCache) Set(context context.Context, user *User, ttl time.Duration) error {

	// Use constants for key prefix
	key := fmt.Sprintf("%s%s", constants.RedisPrefixSession, user.ID)

	snapshot := sessionSnapshot{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Photo:     user.Photo,
		Role:      string(user.Role),
		Verified:  user.Verified,
		Provider:  user.Provider,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("redis_session_cache_marshal_failed: %w", err)
	}

	// Set the snapshot with TTL
	if err := cache.client.Set(context, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_cache_set_failed: %w", err)
	}

	// Return nil on success
	return nil
}

/*
Get retrieves the cached snapshot for a user ID.

Description: A missing entry is not an error: it means the session has lapsed
and is reported as (nil, nil) so callers decide how strict to be.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *User: Cached snapshot, or nil when no session exists
  - error: Connectivity or decoding failures
*/
func (cache *RedisSessionCache) Get(context context.Context, userID string) (*User, error) {

	// Use constants for key prefix
	key := fmt.Sprintf("%s%s", constants.RedisPrefixSession, userID)

	// Get the snapshot from Redis
	payload, err := cache.client.Get(context, key).Bytes()

	// Handle errors
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis_session_cache_get_failed: %w", err)
	}

	snapshot := sessionSnapshot{}
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("redis_session_cache_unmarshal_failed: %w", err)
	}

	return &User{
		ID:        snapshot.ID,
		Name:      snapshot.Name,
		Email:     snapshot.Email,
		Photo:     snapshot.Photo,
		Role:      sec.UserRole(snapshot.Role),
		Verified:  snapshot.Verified,
		Provider:  snapshot.Provider,
		CreatedAt: snapshot.CreatedAt,
		UpdatedAt: snapshot.UpdatedAt,
	}, nil
}

/*
Delete removes the session snapshot, ending the session immediately.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Deletion failures
*/
func (cache *RedisSessionCache) Delete(context context.Context, userID string) error {

	// Use constants for key prefix
	key := fmt.Sprintf("%s%s", constants.RedisPrefixSession, userID)

	// Delete the snapshot from Redis
	if err := cache.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_session_cache_delete_failed: %w", err)
	}

	// Return nil on success
	return nil
}
