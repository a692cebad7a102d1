package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "redressal/pkg/domain"
)

// PostgresStore persists audit events in the audit_events table. The worker
// is the only writer; events never participate in request transactions.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (id, timestamp, action, actor_id, complaint_id, subject, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var complaintID *uuid.UUID
	if !event.ComplaintID.IsNil() {
		cid := uuid.UUID(event.ComplaintID)
		complaintID = &cid
	}
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		event.Timestamp,
		string(event.Action),
		uuid.UUID(event.ActorID),
		complaintID,
		event.Subject,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT timestamp, action, actor_id, complaint_id, subject, reason, request_id
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event       Event
			action      string
			actorID     uuid.UUID
			complaintID *uuid.UUID
		)
		if err := rows.Scan(&event.Timestamp, &action, &actorID, &complaintID, &event.Subject, &event.Reason, &event.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = Action(action)
		event.ActorID = id.PrincipalID(actorID)
		if complaintID != nil {
			event.ComplaintID = id.ComplaintID(*complaintID)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
