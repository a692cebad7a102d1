// Package timeline records the audit trail of a complaint: one append-only
// entry per state-affecting mutation, written in the same unit of work as the
// mutation itself so a complaint is never observable without its history.
package timeline

import (
	"context"

	id "redressal/pkg/domain"
	dErrors "redressal/pkg/domain-errors"
	"redressal/pkg/requestcontext"
)

// Store persists timeline entries. Implementations must honor a SQL
// transaction travelling in the context (pkg/platform/tx) so entries commit
// atomically with the mutation that caused them.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	ListByComplaint(ctx context.Context, complaintID id.ComplaintID) ([]*Entry, error)
}

// Recorder is the only writer of timeline entries.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// RecordCreation appends the mandatory "Complaint submitted" entry.
// The author is nil: the entry is system-generated, not attributed to the
// submitter, so anonymous submissions leak nothing through the timeline.
func (r *Recorder) RecordCreation(ctx context.Context, complaintID id.ComplaintID) error {
	entry := &Entry{
		ID:          id.NewEntryID(),
		ComplaintID: complaintID,
		Message:     MessageSubmitted,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record complaint creation")
	}
	return nil
}

// RecordTransition appends an entry explaining a state-affecting mutation.
func (r *Recorder) RecordTransition(ctx context.Context, complaintID id.ComplaintID, authorID id.PrincipalID, message string) error {
	if message == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "timeline message cannot be empty")
	}
	entry := &Entry{
		ID:          id.NewEntryID(),
		ComplaintID: complaintID,
		AuthorID:    &authorID,
		Message:     message,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record transition")
	}
	return nil
}

// List returns a complaint's entries ordered by creation time, ascending.
func (r *Recorder) List(ctx context.Context, complaintID id.ComplaintID) ([]*Entry, error) {
	entries, err := r.store.ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list timeline")
	}
	return entries, nil
}
