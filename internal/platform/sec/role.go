// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Can manage curated shopping guides and their content
	RoleLeadGuide UserRole = "lead-guide"

	// Can author shopping guides
	RoleGuide UserRole = "guide"

	// Default role for standard registered users
	RoleUser UserRole = "user"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// IsValid reports whether the role is one of the known enumeration values.
func (r UserRole) IsValid() bool {
	return r.level() > 0
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-40) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 40
	case RoleLeadGuide:
		return 30
	case RoleGuide:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
