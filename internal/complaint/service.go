// Package complaint implements the policy-enforced store for grievance
// records. Every read and mutation of a complaint passes through the Service
// in this package: it checks roles and ownership, enforces the
// active-complaint cap, and sequences the audit trail and identity vaulting
// inside one unit of work so no partial state is ever observable.
package complaint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"redressal/internal/audit"
	"redressal/internal/complaint/metrics"
	"redressal/internal/timeline"
	id "redressal/pkg/domain"
	dErrors "redressal/pkg/domain-errors"
	"redressal/pkg/platform/sentinel"
	"redressal/pkg/requestcontext"
)

// MaxActiveComplaints caps how many unresolved, non-withdrawn complaints a
// submitter may hold at once. The cap bounds staff workload per submitter and
// is a safety property: it must hold under concurrent submissions, so it is
// checked inside the same unit of work as the insert.
const MaxActiveComplaints = 3

// Store persists complaint records. Implementations must honor a SQL
// transaction travelling in the context (pkg/platform/tx).
type Store interface {
	Create(ctx context.Context, c *Complaint) error
	Get(ctx context.Context, complaintID id.ComplaintID) (*Complaint, error)
	Update(ctx context.Context, c *Complaint) error
	CountActiveBySubmitter(ctx context.Context, submitterID id.PrincipalID) (int, error)
	ListBySubmitter(ctx context.Context, submitterID id.PrincipalID) ([]*Complaint, error)
	ListByAssignee(ctx context.Context, staffID id.PrincipalID) ([]*Complaint, error)
	ListAll(ctx context.Context) ([]*Complaint, error)
}

// RoleRegistry answers role membership questions. Reads feeding these
// authorization decisions must be current, never cached.
type RoleRegistry interface {
	HasRole(ctx context.Context, principalID id.PrincipalID, role id.Role) (bool, error)
}

// Recorder appends timeline entries within the caller's unit of work and
// serves timeline reads.
type Recorder interface {
	RecordCreation(ctx context.Context, complaintID id.ComplaintID) error
	RecordTransition(ctx context.Context, complaintID id.ComplaintID, authorID id.PrincipalID, message string) error
	List(ctx context.Context, complaintID id.ComplaintID) ([]*timeline.Entry, error)
}

// IdentityLocker vaults and reveals anonymous submitter identities.
type IdentityLocker interface {
	Vault(ctx context.Context, complaintID id.ComplaintID, submitterID id.PrincipalID) error
	RequestReveal(ctx context.Context, complaintID id.ComplaintID, adminID id.PrincipalID, reason string) error
	Reveal(ctx context.Context, complaintID id.ComplaintID, adminID id.PrincipalID) error
	RevealedSubmitter(ctx context.Context, complaintID id.ComplaintID) (id.PrincipalID, bool, error)
}

// AuditPublisher receives security events for the operational trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) bool
}

// Service is the composition root: the only sanctioned read/write surface
// for complaint records.
type Service struct {
	store     Store
	roles     RoleRegistry
	recorder  Recorder
	locker    IdentityLocker
	tx        StoreTx
	logger    *slog.Logger
	publisher AuditPublisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

// NewService constructs the policy-enforced store.
func NewService(store Store, roles RoleRegistry, recorder Recorder, locker IdentityLocker, opts ...Option) *Service {
	s := &Service{
		store:    store,
		roles:    roles,
		recorder: recorder,
		locker:   locker,
		tracer:   otel.Tracer("redressal/internal/complaint"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewInMemoryTx()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Submit files a new complaint for the authenticated student.
//
// The cap check, the insert, the timeline entry and (for anonymous drafts)
// the identity vaulting run in one unit of work: any failure rolls back the
// whole sequence.
//
// Errors: CodeForbidden without the student role; CodeValidation for bad
// draft fields; CodeLimitExceeded at the active-complaint cap; CodeConflict
// when a concurrent writer forced the transaction to retry.
func (s *Service) Submit(ctx context.Context, principalID id.PrincipalID, draft Draft) (id.ComplaintID, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.Submit")
	defer span.End()
	start := time.Now()

	if err := s.requireRole(ctx, principalID, id.RoleStudent); err != nil {
		return id.ComplaintID{}, err
	}

	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return id.ComplaintID{}, err
	}

	complaintID := id.NewComplaintID()
	err := s.tx.RunInTx(ctx, principalID.String(), func(txCtx context.Context) error {
		active, err := s.store.CountActiveBySubmitter(txCtx, principalID)
		if err != nil {
			return s.translate(err, "failed to count active complaints")
		}
		if active >= MaxActiveComplaints {
			s.incrementLimitRejections()
			return dErrors.Newf(dErrors.CodeLimitExceeded,
				"active complaint limit reached (%d of %d)", active, MaxActiveComplaints)
		}

		c, err := New(complaintID, principalID, draft, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.store.Create(txCtx, c); err != nil {
			return s.translate(err, "failed to create complaint")
		}
		if err := s.recorder.RecordCreation(txCtx, complaintID); err != nil {
			return err
		}
		if draft.Anonymous {
			if err := s.locker.Vault(txCtx, complaintID, principalID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return id.ComplaintID{}, err
	}

	s.incrementSubmitted()
	if s.metrics != nil {
		s.metrics.ObserveSubmit(start)
	}
	s.logger.InfoContext(ctx, "complaint submitted",
		"complaint_id", complaintID.String(),
		"anonymous", draft.Anonymous,
	)
	return complaintID, nil
}

// Read returns a complaint subject to visibility rules: a student sees only
// their own records, staff only records assigned to them, admins any record.
//
// Callers without read rights receive CodeNotFound whether or not the record
// exists, so existence never leaks. The submitter of an anonymous complaint
// is redacted for every caller except an admin holding a completed reveal.
func (s *Service) Read(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID) (*Complaint, error) {
	c, err := s.get(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	isAdmin, err := s.roles.HasRole(ctx, principalID, id.RoleAdmin)
	if err != nil {
		return nil, err
	}
	switch {
	case isAdmin:
	case c.SubmitterID == principalID:
	case c.AssignedTo != nil && *c.AssignedTo == principalID:
	default:
		// Same answer as for a record that does not exist.
		return nil, dErrors.New(dErrors.CodeNotFound, "complaint not found")
	}

	if !c.Anonymous {
		return c, nil
	}
	if isAdmin {
		submitterID, revealed, err := s.locker.RevealedSubmitter(ctx, complaintID)
		if err != nil {
			return nil, err
		}
		if revealed {
			c.SubmitterID = submitterID
			return c, nil
		}
	}
	return c.Redacted(), nil
}

// ListMine returns the caller's own complaints, newest first.
func (s *Service) ListMine(ctx context.Context, principalID id.PrincipalID) ([]*Complaint, error) {
	list, err := s.store.ListBySubmitter(ctx, principalID)
	if err != nil {
		return nil, s.translate(err, "failed to list complaints")
	}
	return redactAnonymous(list), nil
}

// ListAssigned returns the staff caller's worklist, newest first.
func (s *Service) ListAssigned(ctx context.Context, principalID id.PrincipalID) ([]*Complaint, error) {
	if err := s.requireRole(ctx, principalID, id.RoleStaff); err != nil {
		return nil, err
	}
	list, err := s.store.ListByAssignee(ctx, principalID)
	if err != nil {
		return nil, s.translate(err, "failed to list assigned complaints")
	}
	return redactAnonymous(list), nil
}

// ListAll returns every complaint, newest first. Admin only. Anonymous
// submitters stay redacted in list views; a completed reveal is only
// honored by Read.
func (s *Service) ListAll(ctx context.Context, principalID id.PrincipalID) ([]*Complaint, error) {
	if err := s.requireRole(ctx, principalID, id.RoleAdmin); err != nil {
		return nil, err
	}
	list, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, s.translate(err, "failed to list complaints")
	}
	return redactAnonymous(list), nil
}

// Timeline returns a complaint's timeline entries, oldest first. Visibility
// follows Read: callers without read rights receive CodeNotFound.
func (s *Service) Timeline(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID) ([]*timeline.Entry, error) {
	if _, err := s.Read(ctx, principalID, complaintID); err != nil {
		return nil, err
	}
	return s.recorder.List(ctx, complaintID)
}

// UpdateStatus transitions a complaint's lifecycle state. Permitted only for
// the assigned staff member or an admin. The update and its timeline entry
// commit together.
//
// Errors: CodeUnauthorized when the caller may not act on the record;
// CodeInvalidTransition for lifecycle violations (resolved is terminal);
// CodeConflict when a concurrent writer won the race.
func (s *Service) UpdateStatus(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID, next Status, note string) error {
	ctx, span := s.tracer.Start(ctx, "complaint.UpdateStatus")
	defer span.End()

	isAdmin, err := s.roles.HasRole(ctx, principalID, id.RoleAdmin)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, complaintID.String(), func(txCtx context.Context) error {
		c, err := s.get(txCtx, complaintID)
		if err != nil {
			return err
		}
		assigned := c.AssignedTo != nil && *c.AssignedTo == principalID
		if !isAdmin && !assigned {
			return dErrors.New(dErrors.CodeUnauthorized, "only the assigned staff member or an admin may change status")
		}
		if err := c.CanTransition(next); err != nil {
			return err
		}
		c.ApplyTransition(next, requestcontext.Now(txCtx))
		if err := s.store.Update(txCtx, c); err != nil {
			return s.translate(err, "failed to update complaint")
		}
		message := note
		if message == "" {
			message = fmt.Sprintf("Status changed to %s", next)
		}
		return s.recorder.RecordTransition(txCtx, complaintID, principalID, message)
	})
	if err != nil {
		return err
	}

	if next == StatusResolved {
		s.incrementResolved()
	}
	s.logger.InfoContext(ctx, "complaint status updated",
		"complaint_id", complaintID.String(),
		"status", string(next),
	)
	return nil
}

// Withdraw soft-retires a complaint. Only the owning submitter, only before
// resolution. Withdrawn complaints stop counting toward the cap.
func (s *Service) Withdraw(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID, reason string) error {
	ctx, span := s.tracer.Start(ctx, "complaint.Withdraw")
	defer span.End()

	err := s.tx.RunInTx(ctx, complaintID.String(), func(txCtx context.Context) error {
		c, err := s.get(txCtx, complaintID)
		if err != nil {
			return err
		}
		if c.SubmitterID != principalID {
			return dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		if err := c.CanWithdraw(); err != nil {
			return err
		}
		c.ApplyWithdrawal(reason, requestcontext.Now(txCtx))
		if err := s.store.Update(txCtx, c); err != nil {
			return s.translate(err, "failed to withdraw complaint")
		}
		message := "Complaint withdrawn"
		if reason != "" {
			message = "Complaint withdrawn: " + reason
		}
		return s.recorder.RecordTransition(txCtx, complaintID, principalID, message)
	})
	if err != nil {
		return err
	}

	s.incrementWithdrawn()
	return nil
}

// Rate records the submitter's satisfaction score, once, after resolution.
func (s *Service) Rate(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID, score int) error {
	return s.tx.RunInTx(ctx, complaintID.String(), func(txCtx context.Context) error {
		c, err := s.get(txCtx, complaintID)
		if err != nil {
			return err
		}
		if c.SubmitterID != principalID {
			return dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		if err := c.CanRate(score); err != nil {
			return err
		}
		c.ApplyRating(score)
		if err := s.store.Update(txCtx, c); err != nil {
			return s.translate(err, "failed to rate complaint")
		}
		return s.recorder.RecordTransition(txCtx, complaintID, principalID,
			fmt.Sprintf("Resolution rated %d/5", score))
	})
}

// Assign hands a complaint to a staff member. Admin only; the target must
// hold the staff role.
func (s *Service) Assign(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID, staffID id.PrincipalID) error {
	if err := s.requireRole(ctx, principalID, id.RoleAdmin); err != nil {
		return err
	}
	isStaff, err := s.roles.HasRole(ctx, staffID, id.RoleStaff)
	if err != nil {
		return err
	}
	if !isStaff {
		return dErrors.New(dErrors.CodeValidation, "assignee must hold the staff role")
	}

	return s.tx.RunInTx(ctx, complaintID.String(), func(txCtx context.Context) error {
		c, err := s.get(txCtx, complaintID)
		if err != nil {
			return err
		}
		if c.Status == StatusResolved {
			return dErrors.New(dErrors.CodeInvalidTransition, "resolved complaints cannot be reassigned")
		}
		c.AssignedTo = &staffID
		if err := s.store.Update(txCtx, c); err != nil {
			return s.translate(err, "failed to assign complaint")
		}
		return s.recorder.RecordTransition(txCtx, complaintID, principalID, "Assigned to staff")
	})
}

// RequestReveal starts the identity reveal workflow for an anonymous
// complaint. Admin only; the request is written to the timeline so the trail
// explains why an identity was later exposed.
func (s *Service) RequestReveal(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID, reason string) error {
	if err := s.requireRole(ctx, principalID, id.RoleAdmin); err != nil {
		return err
	}
	err := s.tx.RunInTx(ctx, complaintID.String(), func(txCtx context.Context) error {
		if err := s.locker.RequestReveal(txCtx, complaintID, principalID, reason); err != nil {
			return err
		}
		return s.recorder.RecordTransition(txCtx, complaintID, principalID, "Identity reveal requested")
	})
	if err != nil {
		return err
	}

	s.emit(ctx, audit.Event{
		Action:      audit.ActionRevealRequested,
		ActorID:     principalID,
		ComplaintID: complaintID,
		Reason:      reason,
	})
	return nil
}

// Reveal completes the identity reveal workflow. Admin only; requires a
// prior RequestReveal.
func (s *Service) Reveal(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID) error {
	if err := s.requireRole(ctx, principalID, id.RoleAdmin); err != nil {
		return err
	}
	err := s.tx.RunInTx(ctx, complaintID.String(), func(txCtx context.Context) error {
		if err := s.locker.Reveal(txCtx, complaintID, principalID); err != nil {
			return err
		}
		return s.recorder.RecordTransition(txCtx, complaintID, principalID, "Identity revealed")
	})
	if err != nil {
		return err
	}

	s.incrementIdentityReveals()
	s.emit(ctx, audit.Event{
		Action:      audit.ActionRevealCompleted,
		ActorID:     principalID,
		ComplaintID: complaintID,
	})
	return nil
}

func (s *Service) get(ctx context.Context, complaintID id.ComplaintID) (*Complaint, error) {
	c, err := s.store.Get(ctx, complaintID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		return nil, s.translate(err, "failed to load complaint")
	}
	return c, nil
}

func (s *Service) requireRole(ctx context.Context, principalID id.PrincipalID, role id.Role) error {
	held, err := s.roles.HasRole(ctx, principalID, role)
	if err != nil {
		return err
	}
	if !held {
		return dErrors.Newf(dErrors.CodeForbidden, "%s role required", role)
	}
	return nil
}

// translate maps infrastructure sentinels onto domain errors. Conflicts stay
// distinguishable so callers know the whole unit of work is safe to retry.
func (s *Service) translate(err error, message string) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent update detected, retry the operation")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "complaint not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, message)
	}
}

func redactAnonymous(list []*Complaint) []*Complaint {
	out := make([]*Complaint, 0, len(list))
	for _, c := range list {
		if c.Anonymous {
			out = append(out, c.Redacted())
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	if !s.publisher.Emit(ctx, event) {
		s.logger.WarnContext(ctx, "audit event dropped", "action", string(event.Action))
	}
}

func (s *Service) incrementSubmitted() {
	if s.metrics != nil {
		s.metrics.IncrementSubmitted()
	}
}

func (s *Service) incrementResolved() {
	if s.metrics != nil {
		s.metrics.IncrementResolved()
	}
}

func (s *Service) incrementWithdrawn() {
	if s.metrics != nil {
		s.metrics.IncrementWithdrawn()
	}
}

func (s *Service) incrementLimitRejections() {
	if s.metrics != nil {
		s.metrics.IncrementLimitRejections()
	}
}

func (s *Service) incrementIdentityReveals() {
	if s.metrics != nil {
		s.metrics.IncrementIdentityReveals()
	}
}
