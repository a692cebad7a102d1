package domain

import dErrors "redressal/pkg/domain-errors"

// Role is a named authority grant held by a principal. Authority flows only
// from rows in the role-assignment relation; profile data never grants it.
//
// Usage: construct via ParseRole at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Role string

// Supported roles. Roles are additive: a principal may hold several.
const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// validRoles is the single source of truth for valid roles.
var validRoles = map[Role]bool{
	RoleStudent: true,
	RoleStaff:   true,
	RoleAdmin:   true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}
