package locker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "redressal/pkg/domain"
	"redressal/pkg/platform/sentinel"
	txcontext "redressal/pkg/platform/tx"
)

// PostgresStore persists locker entries in the identity_lockers table, keyed
// by complaint ID. Creation joins any transaction travelling in the context
// so vaulting commits atomically with the complaint insert.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const pqUniqueViolation = "23505"

func (s *PostgresStore) Create(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO identity_lockers (complaint_id, submitter_id, reveal_status)
		VALUES ($1, $2, $3)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(entry.ComplaintID),
		uuid.UUID(entry.SubmitterID),
		string(entry.RevealStatus),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert locker entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, complaintID id.ComplaintID) (*Entry, error) {
	query := `
		SELECT complaint_id, submitter_id, reveal_status, reveal_reason, requested_by, revealed_at
		FROM identity_lockers
		WHERE complaint_id = $1
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(complaintID))

	var (
		entry       Entry
		cID         uuid.UUID
		submitterID uuid.UUID
		status      string
		reason      sql.NullString
		requestedBy *uuid.UUID
		revealedAt  sql.NullTime
	)
	err := row.Scan(&cID, &submitterID, &status, &reason, &requestedBy, &revealedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan locker entry: %w", err)
	}

	entry.ComplaintID = id.ComplaintID(cID)
	entry.SubmitterID = id.PrincipalID(submitterID)
	entry.RevealStatus = RevealStatus(status)
	if reason.Valid {
		entry.RevealReason = reason.String
	}
	if requestedBy != nil {
		rb := id.PrincipalID(*requestedBy)
		entry.RequestedBy = &rb
	}
	if revealedAt.Valid {
		t := revealedAt.Time
		entry.RevealedAt = &t
	}
	return &entry, nil
}

func (s *PostgresStore) Update(ctx context.Context, entry *Entry) error {
	query := `
		UPDATE identity_lockers
		SET reveal_status = $2, reveal_reason = $3, requested_by = $4, revealed_at = $5
		WHERE complaint_id = $1
	`
	var requestedBy *uuid.UUID
	if entry.RequestedBy != nil {
		rb := uuid.UUID(*entry.RequestedBy)
		requestedBy = &rb
	}
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(entry.ComplaintID),
		string(entry.RevealStatus),
		nullString(entry.RevealReason),
		requestedBy,
		entry.RevealedAt,
	)
	if err != nil {
		return fmt.Errorf("update locker entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update locker entry: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
