package complaint

import (
	"strings"
	"time"
	"unicode/utf8"

	id "redressal/pkg/domain"
	dErrors "redressal/pkg/domain-errors"
)

// Status is the lifecycle state of a complaint.
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

// allowedTransitions encodes the lifecycle state machine. Resolved is
// terminal: nothing transitions out of it.
var allowedTransitions = map[Status]map[Status]bool{
	StatusSubmitted:  {StatusInProgress: true, StatusResolved: true},
	StatusInProgress: {StatusResolved: true},
	StatusResolved:   {},
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	return allowedTransitions[s][next]
}

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	return st, nil
}

// Category classifies what a complaint is about.
type Category string

const (
	CategoryHostel         Category = "hostel"
	CategoryAcademic       Category = "academic"
	CategoryFood           Category = "food"
	CategoryInfrastructure Category = "infrastructure"
	CategoryOther          Category = "other"
)

var validCategories = map[Category]bool{
	CategoryHostel:         true,
	CategoryAcademic:       true,
	CategoryFood:           true,
	CategoryInfrastructure: true,
	CategoryOther:          true,
}

func (c Category) IsValid() bool { return validCategories[c] }

// Severity grades how urgent a complaint is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

var validSeverities = map[Severity]bool{
	SeverityLow:    true,
	SeverityMedium: true,
	SeverityHigh:   true,
}

func (s Severity) IsValid() bool { return validSeverities[s] }

// Title and body length bounds for a draft complaint.
const (
	minTitleLen = 5
	maxTitleLen = 100
	minBodyLen  = 20
	maxBodyLen  = 1000
)

// Draft is the data-transfer payload a submitter provides. It carries no
// identity: the submitter is always taken from the authenticated principal.
type Draft struct {
	Category  Category `json:"category"`
	Severity  Severity `json:"severity"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Anonymous bool     `json:"anonymous"`
}

// Normalize trims free-text fields in place.
func (d *Draft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Body = strings.TrimSpace(d.Body)
}

// Validate checks the draft field constraints.
//
// Errors: returns CodeValidation naming the first offending field.
func (d *Draft) Validate() error {
	if !d.Category.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid category")
	}
	if !d.Severity.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid severity")
	}
	if n := utf8.RuneCountInString(d.Title); n < minTitleLen || n > maxTitleLen {
		return dErrors.Newf(dErrors.CodeValidation, "title must be between %d and %d characters", minTitleLen, maxTitleLen)
	}
	if n := utf8.RuneCountInString(d.Body); n < minBodyLen || n > maxBodyLen {
		return dErrors.Newf(dErrors.CodeValidation, "description must be between %d and %d characters", minBodyLen, maxBodyLen)
	}
	return nil
}

// Complaint is the aggregate root for a grievance record.
//
// Invariants:
//   - Status transitions follow allowedTransitions; resolved is terminal
//   - Records are never physically deleted; withdrawal is a soft state
//   - ResolvedAt is set exactly when the record enters resolved
//   - Rating is set at most once, and only on a resolved record, by the owner
//   - SubmitterID never changes after creation
//
// The anonymity flag controls presentation only: the true submitter is always
// stored (here and, for anonymous records, in the identity locker) so the cap
// and ownership checks keep working. Redaction happens at the read surface.
type Complaint struct {
	ID             id.ComplaintID  `json:"id"`
	SubmitterID    id.PrincipalID  `json:"submitter_id"`
	Category       Category        `json:"category"`
	Severity       Severity        `json:"severity"`
	Title          string          `json:"title"`
	Body           string          `json:"body"`
	Anonymous      bool            `json:"anonymous"`
	Status         Status          `json:"status"`
	AssignedTo     *id.PrincipalID `json:"assigned_to,omitempty"`
	Rating         *int            `json:"rating,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	WithdrawnAt    *time.Time      `json:"withdrawn_at,omitempty"`
	WithdrawReason string          `json:"withdraw_reason,omitempty"`
}

// New builds a complaint from a validated draft.
func New(complaintID id.ComplaintID, submitterID id.PrincipalID, draft Draft, now time.Time) (*Complaint, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return &Complaint{
		ID:          complaintID,
		SubmitterID: submitterID,
		Category:    draft.Category,
		Severity:    draft.Severity,
		Title:       draft.Title,
		Body:        draft.Body,
		Anonymous:   draft.Anonymous,
		Status:      StatusSubmitted,
		CreatedAt:   now,
	}, nil
}

// IsWithdrawn reports whether the submitter has withdrawn the complaint.
func (c *Complaint) IsWithdrawn() bool {
	return c.WithdrawnAt != nil
}

// IsActive reports whether the complaint counts toward the submitter's
// active-complaint cap: not resolved and not withdrawn.
func (c *Complaint) IsActive() bool {
	return c.Status != StatusResolved && !c.IsWithdrawn()
}

// CanTransition checks whether the record may move to next.
// Use with ApplyTransition inside an Execute callback so validation and
// mutation happen under the same lock.
func (c *Complaint) CanTransition(next Status) error {
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	if !c.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot transition from %s to %s", c.Status, next)
	}
	return nil
}

// ApplyTransition moves the record to next, stamping the resolution time on
// entry into resolved. Call CanTransition first to validate.
func (c *Complaint) ApplyTransition(next Status, now time.Time) {
	c.Status = next
	if next == StatusResolved {
		c.ResolvedAt = &now
	}
}

// CanWithdraw checks whether the owner may withdraw the complaint.
func (c *Complaint) CanWithdraw() error {
	if c.Status == StatusResolved {
		return dErrors.New(dErrors.CodeInvalidTransition, "resolved complaints cannot be withdrawn")
	}
	if c.IsWithdrawn() {
		return dErrors.New(dErrors.CodeInvalidTransition, "complaint is already withdrawn")
	}
	return nil
}

// ApplyWithdrawal stamps the withdrawal time and reason.
// Call CanWithdraw first to validate.
func (c *Complaint) ApplyWithdrawal(reason string, now time.Time) {
	c.WithdrawnAt = &now
	c.WithdrawReason = reason
}

// CanRate checks whether the owner may record a satisfaction rating.
func (c *Complaint) CanRate(score int) error {
	if score < 1 || score > 5 {
		return dErrors.New(dErrors.CodeValidation, "rating must be between 1 and 5")
	}
	if c.Status != StatusResolved {
		return dErrors.New(dErrors.CodeInvalidTransition, "only resolved complaints can be rated")
	}
	if c.Rating != nil {
		return dErrors.New(dErrors.CodeInvalidTransition, "complaint has already been rated")
	}
	return nil
}

// ApplyRating records the score. Call CanRate first to validate.
func (c *Complaint) ApplyRating(score int) {
	c.Rating = &score
}

// Redacted returns a copy safe to show to callers who must not learn the
// submitter of an anonymous complaint. The submitter ID is zeroed; everything
// else is preserved.
func (c *Complaint) Redacted() *Complaint {
	out := *c
	out.SubmitterID = id.PrincipalID{}
	return &out
}
