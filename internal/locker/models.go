package locker

import (
	"time"

	id "redressal/pkg/domain"
	dErrors "redressal/pkg/domain-errors"
)

// RevealStatus tracks how far the reveal workflow has progressed.
// The state machine is monotonic: not_revealed -> requested -> revealed,
// with no back-transitions.
type RevealStatus string

const (
	RevealStatusNotRevealed RevealStatus = "not_revealed"
	RevealStatusRequested   RevealStatus = "requested"
	RevealStatusRevealed    RevealStatus = "revealed"
)

// Entry vaults the true submitter of an anonymous complaint. One entry exists
// per anonymous complaint, created in the same unit of work as the complaint,
// and is mutated only through the reveal workflow.
type Entry struct {
	ComplaintID  id.ComplaintID  `json:"complaint_id"`
	SubmitterID  id.PrincipalID  `json:"-"` // never serialized; exposed only via a completed reveal
	RevealStatus RevealStatus    `json:"reveal_status"`
	RevealReason string          `json:"reveal_reason,omitempty"`
	RequestedBy  *id.PrincipalID `json:"requested_by,omitempty"`
	RevealedAt   *time.Time      `json:"revealed_at,omitempty"`
}

// CanRequestReveal checks whether a reveal request is meaningful. A repeat
// request is not an error: the workflow treats it as a no-op so retried
// requests stay safe.
func (e *Entry) CanRequestReveal() bool {
	return e.RevealStatus == RevealStatusNotRevealed
}

// ApplyRevealRequest moves the entry to requested.
func (e *Entry) ApplyRevealRequest(adminID id.PrincipalID, reason string) {
	e.RevealStatus = RevealStatusRequested
	e.RevealReason = reason
	e.RequestedBy = &adminID
}

// CanReveal checks the ordering invariant: a reveal must be preceded by an
// explicit request, so the audit trail always explains why an identity was
// exposed.
func (e *Entry) CanReveal() error {
	switch e.RevealStatus {
	case RevealStatusRequested:
		return nil
	case RevealStatusRevealed:
		return dErrors.New(dErrors.CodeInvalidTransition, "identity has already been revealed")
	default:
		return dErrors.New(dErrors.CodeInvalidTransition, "reveal requires a prior reveal request")
	}
}

// ApplyReveal moves the entry to revealed and stamps the time.
// Call CanReveal first to validate.
func (e *Entry) ApplyReveal(now time.Time) {
	e.RevealStatus = RevealStatusRevealed
	e.RevealedAt = &now
}
