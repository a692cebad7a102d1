package audit

import (
	"time"

	id "redressal/pkg/domain"
)

// Event is emitted from domain logic to capture security-relevant actions:
// role changes and identity reveals. Keep it transport-agnostic so stores and
// sinks can fan out.
//
// This operational trail is separate from the complaint timeline: the
// timeline is part of the domain record and commits with the mutation, while
// these events feed monitoring and are persisted by a background worker.
type Event struct {
	Timestamp   time.Time
	Action      Action
	ActorID     id.PrincipalID
	ComplaintID id.ComplaintID // zero for events not tied to a complaint
	Subject     string         // e.g. the principal a role was granted to
	Reason      string
	RequestID   string
}

// Action names an auditable occurrence.
type Action string

const (
	ActionRoleGranted     Action = "role_granted"
	ActionRoleRevoked     Action = "role_revoked"
	ActionRevealRequested Action = "reveal_requested"
	ActionRevealCompleted Action = "reveal_completed"
)
