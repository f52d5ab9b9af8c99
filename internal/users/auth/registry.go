// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/selvohq/selvo/internal/platform/sec"
)

// MemoryRefreshRegistry implements RefreshRegistry with an in-process map.
//
// Entries do not survive a restart, which forcibly logs every client out.
// Suitable for tests and single-instance development; production deployments
// use RedisRefreshRegistry.
type MemoryRefreshRegistry struct {
	mutex   sync.Mutex
	entries map[string]time.Time // token hash -> expiry
}

// NewMemoryRefreshRegistry creates an empty in-process RefreshRegistry.
func NewMemoryRefreshRegistry() *MemoryRefreshRegistry {
	return &MemoryRefreshRegistry{entries: make(map[string]time.Time)}
}

// Register records the token until its TTL elapses.
func (registry *MemoryRefreshRegistry) Register(_ context.Context, token string, ttl time.Duration) error {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	registry.entries[sec.HashToken(token)] = time.Now().Add(ttl)
	return nil
}

// Consume removes the token under the lock, so only one caller can win.
func (registry *MemoryRefreshRegistry) Consume(_ context.Context, token string) (bool, error) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	hash := sec.HashToken(token)
	expiry, present := registry.entries[hash]
	if !present {
		return false, nil
	}

	delete(registry.entries, hash)
	if time.Now().After(expiry) {
		return false, nil
	}
	return true, nil
}

// Contains reports whether the token is registered and not expired.
func (registry *MemoryRefreshRegistry) Contains(_ context.Context, token string) (bool, error) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	expiry, present := registry.entries[sec.HashToken(token)]
	if !present {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(registry.entries, sec.HashToken(token))
		return false, nil
	}
	return true, nil
}
