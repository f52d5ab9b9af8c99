// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selvohq/selvo/internal/platform/sec"
)

/*
TestHashPassword_RoundTrip checks that a hashed password verifies and a wrong
one does not.
*/
func TestHashPassword_RoundTrip(t *testing.T) {
	// Minimum cost keeps the test fast
	hash, err := sec.HashPassword("correct horse battery staple", 4)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, sec.CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, sec.CheckPasswordHash("wrong password", hash))
	assert.False(t, sec.CheckPasswordHash("", hash))
}

/*
TestGenerateSecureToken checks encoding length and uniqueness.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	// Hex encoding doubles the byte length
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}

/*
TestHashToken checks that token hashing is deterministic and one-way distinct.
*/
func TestHashToken(t *testing.T) {
	assert.Equal(t, sec.HashToken("abc"), sec.HashToken("abc"))
	assert.NotEqual(t, sec.HashToken("abc"), sec.HashToken("abd"))
	assert.Len(t, sec.HashToken("abc"), 64)
}

/*
TestUserRole_AtLeast checks the role hierarchy ordering.
*/
func TestUserRole_AtLeast(t *testing.T) {
	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleUser))
	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleAdmin))
	assert.True(t, sec.RoleLeadGuide.AtLeast(sec.RoleGuide))
	assert.False(t, sec.RoleUser.AtLeast(sec.RoleGuide))
	assert.False(t, sec.RoleGuide.AtLeast(sec.RoleAdmin))
}

/*
TestUserRole_IsValid rejects unknown role labels.
*/
func TestUserRole_IsValid(t *testing.T) {
	assert.True(t, sec.RoleUser.IsValid())
	assert.True(t, sec.RoleAdmin.IsValid())
	assert.False(t, sec.UserRole("superuser").IsValid())
	assert.False(t, sec.UserRole("").IsValid())
}
