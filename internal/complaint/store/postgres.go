package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"redressal/internal/complaint"
	id "redressal/pkg/domain"
	"redressal/pkg/platform/sentinel"
	txcontext "redressal/pkg/platform/tx"
)

// Postgres persists complaint records in the complaints table. All queries
// join any SQL transaction travelling in the context, which is how the cap
// check, the insert and the timeline entry end up in one serializable
// transaction.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Postgres error codes this store translates into sentinels.
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// translatePQ maps retryable postgres failures onto sentinel.ErrConflict so
// the service layer can tell the caller the unit of work is safe to retry.
func translatePQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqSerializationFailure, pqDeadlockDetected:
			return fmt.Errorf("%w: %v", sentinel.ErrConflict, err)
		case pqUniqueViolation:
			return fmt.Errorf("%w: %v", sentinel.ErrAlreadyUsed, err)
		}
	}
	return err
}

const complaintColumns = `
	id, submitter_id, category, severity, title, body, anonymous,
	status, assigned_to, rating, created_at, resolved_at, withdrawn_at, withdraw_reason
`

func (s *Postgres) Create(ctx context.Context, c *complaint.Complaint) error {
	query := `
		INSERT INTO complaints (` + complaintColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID),
		uuid.UUID(c.SubmitterID),
		string(c.Category),
		string(c.Severity),
		c.Title,
		c.Body,
		c.Anonymous,
		string(c.Status),
		principalPtr(c.AssignedTo),
		c.Rating,
		c.CreatedAt,
		c.ResolvedAt,
		c.WithdrawnAt,
		nullString(c.WithdrawReason),
	)
	if err != nil {
		return fmt.Errorf("insert complaint: %w", translatePQ(err))
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, complaintID id.ComplaintID) (*complaint.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(complaintID))
	c, err := scanComplaint(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan complaint: %w", translatePQ(err))
	}
	return c, nil
}

func (s *Postgres) Update(ctx context.Context, c *complaint.Complaint) error {
	query := `
		UPDATE complaints
		SET status = $2, assigned_to = $3, rating = $4, resolved_at = $5,
		    withdrawn_at = $6, withdraw_reason = $7
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID),
		string(c.Status),
		principalPtr(c.AssignedTo),
		c.Rating,
		c.ResolvedAt,
		c.WithdrawnAt,
		nullString(c.WithdrawReason),
	)
	if err != nil {
		return fmt.Errorf("update complaint: %w", translatePQ(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update complaint: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// CountActiveBySubmitter counts complaints feeding the active-complaint cap:
// not resolved and not withdrawn. Must run inside the caller's serializable
// transaction to be race-free with the subsequent insert.
func (s *Postgres) CountActiveBySubmitter(ctx context.Context, submitterID id.PrincipalID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM complaints
		WHERE submitter_id = $1 AND status <> 'resolved' AND withdrawn_at IS NULL
	`
	var count int
	if err := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(submitterID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active complaints: %w", translatePQ(err))
	}
	return count, nil
}

func (s *Postgres) ListBySubmitter(ctx context.Context, submitterID id.PrincipalID) ([]*complaint.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE submitter_id = $1 ORDER BY created_at DESC`
	return s.queryList(ctx, query, uuid.UUID(submitterID))
}

func (s *Postgres) ListByAssignee(ctx context.Context, staffID id.PrincipalID) ([]*complaint.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE assigned_to = $1 ORDER BY created_at DESC`
	return s.queryList(ctx, query, uuid.UUID(staffID))
}

func (s *Postgres) ListAll(ctx context.Context) ([]*complaint.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints ORDER BY created_at DESC`
	return s.queryList(ctx, query)
}

func (s *Postgres) queryList(ctx context.Context, query string, args ...any) ([]*complaint.Complaint, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query complaints: %w", translatePQ(err))
	}
	defer rows.Close()

	var out []*complaint.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate complaints: %w", err)
	}
	return out, nil
}

func scanComplaint(scan func(dest ...any) error) (*complaint.Complaint, error) {
	var (
		c              complaint.Complaint
		complaintID    uuid.UUID
		submitterID    uuid.UUID
		category       string
		severity       string
		status         string
		assignedTo     *uuid.UUID
		rating         sql.NullInt64
		resolvedAt     sql.NullTime
		withdrawnAt    sql.NullTime
		withdrawReason sql.NullString
	)
	err := scan(
		&complaintID, &submitterID, &category, &severity, &c.Title, &c.Body, &c.Anonymous,
		&status, &assignedTo, &rating, &c.CreatedAt, &resolvedAt, &withdrawnAt, &withdrawReason,
	)
	if err != nil {
		return nil, err
	}
	c.ID = id.ComplaintID(complaintID)
	c.SubmitterID = id.PrincipalID(submitterID)
	c.Category = complaint.Category(category)
	c.Severity = complaint.Severity(severity)
	c.Status = complaint.Status(status)
	if assignedTo != nil {
		a := id.PrincipalID(*assignedTo)
		c.AssignedTo = &a
	}
	if rating.Valid {
		r := int(rating.Int64)
		c.Rating = &r
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		c.ResolvedAt = &t
	}
	if withdrawnAt.Valid {
		t := withdrawnAt.Time
		c.WithdrawnAt = &t
	}
	if withdrawReason.Valid {
		c.WithdrawReason = withdrawReason.String
	}
	return &c, nil
}

func principalPtr(p *id.PrincipalID) *uuid.UUID {
	if p == nil {
		return nil
	}
	u := uuid.UUID(*p)
	return &u
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
