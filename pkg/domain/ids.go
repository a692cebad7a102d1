// Package domain holds shared domain primitives: strongly typed identifiers
// and closed enumerations used across feature packages.
//
// IDs are distinct uuid.UUID wrappers so the compiler rejects cross-type
// assignment (a PrincipalID can never be passed where a ComplaintID is
// expected). Parse functions enforce validity at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "redressal/pkg/domain-errors"
)

// PrincipalID identifies an authenticated actor (student, staff or admin).
type PrincipalID uuid.UUID

// ComplaintID identifies a grievance record.
type ComplaintID uuid.UUID

// EntryID identifies a timeline entry.
type EntryID uuid.UUID

func (id PrincipalID) String() string { return uuid.UUID(id).String() }
func (id ComplaintID) String() string { return uuid.UUID(id).String() }
func (id EntryID) String() string     { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id PrincipalID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ComplaintID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// NewPrincipalID returns a fresh random principal identifier.
func NewPrincipalID() PrincipalID { return PrincipalID(uuid.New()) }

// NewComplaintID returns a fresh random complaint identifier.
func NewComplaintID() ComplaintID { return ComplaintID(uuid.New()) }

// NewEntryID returns a fresh random timeline entry identifier.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

// ParsePrincipalID validates and converts an external string into a PrincipalID.
func ParsePrincipalID(s string) (PrincipalID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return PrincipalID{}, err
	}
	return PrincipalID(u), nil
}

// ParseComplaintID validates and converts an external string into a ComplaintID.
func ParseComplaintID(s string) (ComplaintID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ComplaintID{}, err
	}
	return ComplaintID(u), nil
}

// ParseEntryID validates and converts an external string into an EntryID.
func ParseEntryID(s string) (EntryID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EntryID{}, err
	}
	return EntryID(u), nil
}

// parseUUID rejects empty, malformed and nil UUIDs. IDs arriving from the
// outside must always be valid, non-nil identifiers.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
