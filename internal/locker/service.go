// Package locker maps anonymous complaints to their true submitters. The
// mapping is written once at complaint creation and read back only through an
// explicit, audited reveal workflow.
//
// The package is a pure state-machine surface: it does not check who the
// caller is. Admin-only enforcement for the reveal operations lives in the
// complaint service, which is the only externally callable surface.
package locker

import (
	"context"
	"errors"

	id "redressal/pkg/domain"
	dErrors "redressal/pkg/domain-errors"
	"redressal/pkg/platform/sentinel"
	"redressal/pkg/requestcontext"
)

// Store persists locker entries. Get must return sentinel.ErrNotFound for
// unknown complaints; Create must return sentinel.ErrAlreadyUsed when an
// entry already exists so Vault can stay idempotent.
type Store interface {
	Create(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, complaintID id.ComplaintID) (*Entry, error)
	Update(ctx context.Context, entry *Entry) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Vault records the true submitter of an anonymous complaint. Idempotent: a
// second call for the same complaint is a no-op, so a retried enclosing
// transaction cannot fail here.
func (s *Service) Vault(ctx context.Context, complaintID id.ComplaintID, submitterID id.PrincipalID) error {
	entry := &Entry{
		ComplaintID:  complaintID,
		SubmitterID:  submitterID,
		RevealStatus: RevealStatusNotRevealed,
	}
	if err := s.store.Create(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to vault submitter identity")
	}
	return nil
}

// RequestReveal transitions not_revealed -> requested. Repeat requests are
// no-ops rather than errors.
func (s *Service) RequestReveal(ctx context.Context, complaintID id.ComplaintID, adminID id.PrincipalID, reason string) error {
	entry, err := s.get(ctx, complaintID)
	if err != nil {
		return err
	}
	if !entry.CanRequestReveal() {
		return nil
	}
	entry.ApplyRevealRequest(adminID, reason)
	if err := s.store.Update(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record reveal request")
	}
	return nil
}

// Reveal transitions requested -> revealed and stamps the reveal time.
//
// Errors: CodeInvalidTransition when no reveal request precedes the call or
// the identity is already revealed.
func (s *Service) Reveal(ctx context.Context, complaintID id.ComplaintID, adminID id.PrincipalID) error {
	entry, err := s.get(ctx, complaintID)
	if err != nil {
		return err
	}
	if err := entry.CanReveal(); err != nil {
		return err
	}
	entry.ApplyReveal(requestcontext.Now(ctx))
	if err := s.store.Update(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record reveal")
	}
	return nil
}

// RevealedSubmitter returns the vaulted submitter ID when, and only when, the
// reveal workflow has completed for the complaint. The boolean reports
// whether the identity may be disclosed.
func (s *Service) RevealedSubmitter(ctx context.Context, complaintID id.ComplaintID) (id.PrincipalID, bool, error) {
	entry, err := s.store.Get(ctx, complaintID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return id.PrincipalID{}, false, nil
		}
		return id.PrincipalID{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load locker entry")
	}
	if entry.RevealStatus != RevealStatusRevealed {
		return id.PrincipalID{}, false, nil
	}
	return entry.SubmitterID, true, nil
}

// Status returns the reveal state for a complaint, for admin views.
func (s *Service) Status(ctx context.Context, complaintID id.ComplaintID) (*Entry, error) {
	entry, err := s.get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	// The vaulted ID is not part of the status view.
	entry.SubmitterID = id.PrincipalID{}
	return entry, nil
}

func (s *Service) get(ctx context.Context, complaintID id.ComplaintID) (*Entry, error) {
	entry, err := s.store.Get(ctx, complaintID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no identity locker entry for complaint")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load locker entry")
	}
	return entry, nil
}
