// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selvohq/selvo/internal/platform/apperr"
	"github.com/selvohq/selvo/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "name", "Selvo", false},
		{"empty_string", "name", "", true},
		{"whitespace_only", "name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, apperr.CodeValidationError, ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Email checks the email format validation rule.
*/
func TestValidator_Email(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		isValid bool
	}{
		{"valid_email", "test@example.com", true},
		{"invalid_format", "invalid-email", false},
		{"missing_domain", "test@", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Email("email", tt.email)

			if tt.isValid {
				assert.False(t, v.HasErrors())
			} else {
				assert.True(t, v.HasErrors())
			}
		})
	}
}

/*
TestValidator_Match tests the password confirmation rule.
*/
func TestValidator_Match(t *testing.T) {
	v := &validate.Validator{}
	v.Match("password_confirm", "hunter22", "hunter22", "Passwords do not match")
	assert.False(t, v.HasErrors())

	v2 := &validate.Validator{}
	v2.Match("password_confirm", "hunter22", "hunter23", "Passwords do not match")
	require.True(t, v2.HasErrors())

	ae := apperr.As(v2.Err())
	require.NotNil(t, ae)
	assert.Equal(t, "Passwords do not match", ae.Details[0].Message)
}

/*
TestValidator_Chain tests the fluent API (chaining multiple rules).
*/
func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}

	// Multi-rule validation
	err := v.
		Required("name", "Mai").
		MinLen("name", "Mai", 3).
		MaxLen("name", "Mai", 10).
		Email("email", "mai@selvo.store").
		Err()

	assert.NoError(t, err)
	assert.False(t, v.HasErrors())
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("name", "").           // Fails
		MinLen("name", "a", 5).         // Fails
		Email("email", "not-an-email"). // Fails
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)

	// Should accumulate all 3 errors
	assert.Len(t, ae.Details, 3)
}

/*
TestValidator_OneOf checks enumeration membership.
*/
func TestValidator_OneOf(t *testing.T) {
	v := &validate.Validator{}
	v.OneOf("role", "admin", "user", "guide", "lead-guide", "admin")
	assert.False(t, v.HasErrors())

	v2 := &validate.Validator{}
	v2.OneOf("role", "superuser", "user", "guide", "lead-guide", "admin")
	assert.True(t, v2.HasErrors())
}

/*
TestValidator_UUID checks identifier format validation.
*/
func TestValidator_UUID(t *testing.T) {
	v := &validate.Validator{}
	v.UUID("id", "0191b4c8-7b27-7f2e-9c6e-3b1a2d4f5e6a")
	assert.False(t, v.HasErrors())

	v2 := &validate.Validator{}
	v2.UUID("id", "not-a-uuid")
	assert.True(t, v2.HasErrors())
}
