package handler

import (
	"strings"

	id "redressal/pkg/domain"
)

// RoleChangeRequest is the HTTP request body for POST and DELETE /admin/roles.
type RoleChangeRequest struct {
	PrincipalID string `json:"principal_id"`
	Role        string `json:"role"`

	// Parsed values (populated by Validate)
	parsedPrincipalID id.PrincipalID
	parsedRole        id.Role
}

// Validate validates and parses the request.
func (r *RoleChangeRequest) Validate() error {
	principalID, err := id.ParsePrincipalID(strings.TrimSpace(r.PrincipalID))
	if err != nil {
		return err
	}
	r.parsedPrincipalID = principalID

	role, err := id.ParseRole(strings.TrimSpace(r.Role))
	if err != nil {
		return err
	}
	r.parsedRole = role
	return nil
}

// ParsedPrincipalID returns the validated subject principal ID.
func (r *RoleChangeRequest) ParsedPrincipalID() id.PrincipalID {
	return r.parsedPrincipalID
}

// ParsedRole returns the validated role.
func (r *RoleChangeRequest) ParsedRole() id.Role {
	return r.parsedRole
}

// BootstrapRequest is the HTTP request body for POST /bootstrap/admin.
type BootstrapRequest struct {
	PrincipalID string `json:"principal_id"`

	parsedPrincipalID id.PrincipalID
}

// Validate validates and parses the request.
func (r *BootstrapRequest) Validate() error {
	principalID, err := id.ParsePrincipalID(strings.TrimSpace(r.PrincipalID))
	if err != nil {
		return err
	}
	r.parsedPrincipalID = principalID
	return nil
}

// ParsedPrincipalID returns the validated principal ID.
func (r *BootstrapRequest) ParsedPrincipalID() id.PrincipalID {
	return r.parsedPrincipalID
}
