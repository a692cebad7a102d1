package timeline

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "redressal/pkg/domain"
	txcontext "redressal/pkg/platform/tx"
)

// PostgresStore persists timeline entries in the timeline_entries table.
// Writes join any SQL transaction travelling in the context so entries commit
// atomically with the complaint mutation that produced them.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO timeline_entries (id, complaint_id, author_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	var authorID *uuid.UUID
	if entry.AuthorID != nil {
		aid := uuid.UUID(*entry.AuthorID)
		authorID = &aid
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		uuid.UUID(entry.ComplaintID),
		authorID,
		entry.Message,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert timeline entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByComplaint(ctx context.Context, complaintID id.ComplaintID) ([]*Entry, error) {
	query := `
		SELECT id, complaint_id, author_id, message, created_at
		FROM timeline_entries
		WHERE complaint_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(complaintID))
	if err != nil {
		return nil, fmt.Errorf("query timeline entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			entry    Entry
			entryID  uuid.UUID
			cID      uuid.UUID
			authorID *uuid.UUID
		)
		if err := rows.Scan(&entryID, &cID, &authorID, &entry.Message, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan timeline entry: %w", err)
		}
		entry.ID = id.EntryID(entryID)
		entry.ComplaintID = id.ComplaintID(cID)
		if authorID != nil {
			aid := id.PrincipalID(*authorID)
			entry.AuthorID = &aid
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline entries: %w", err)
	}
	return entries, nil
}
