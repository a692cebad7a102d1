package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "redressal/pkg/domain"
	txcontext "redressal/pkg/platform/tx"
)

// Postgres persists role assignments in the role_assignments table.
// (principal_id, role) is the primary key, so duplicate grants collapse via
// ON CONFLICT DO NOTHING and the idempotency contract holds at the database.
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

func (s *Postgres) Grant(ctx context.Context, principalID id.PrincipalID, role id.Role) error {
	query := `
		INSERT INTO role_assignments (principal_id, role)
		VALUES ($1, $2)
		ON CONFLICT (principal_id, role) DO NOTHING
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(principalID), role.String()); err != nil {
		return fmt.Errorf("insert role assignment: %w", err)
	}
	return nil
}

func (s *Postgres) Revoke(ctx context.Context, principalID id.PrincipalID, role id.Role) error {
	query := `DELETE FROM role_assignments WHERE principal_id = $1 AND role = $2`
	if _, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(principalID), role.String()); err != nil {
		return fmt.Errorf("delete role assignment: %w", err)
	}
	return nil
}

func (s *Postgres) HasRole(ctx context.Context, principalID id.PrincipalID, role id.Role) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM role_assignments WHERE principal_id = $1 AND role = $2)`
	var held bool
	if err := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(principalID), role.String()).Scan(&held); err != nil {
		return false, fmt.Errorf("query role assignment: %w", err)
	}
	return held, nil
}

func (s *Postgres) RolesOf(ctx context.Context, principalID id.PrincipalID) ([]id.Role, error) {
	query := `SELECT role FROM role_assignments WHERE principal_id = $1 ORDER BY role`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(principalID))
	if err != nil {
		return nil, fmt.Errorf("query role assignments: %w", err)
	}
	defer rows.Close()

	var roles []id.Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan role assignment: %w", err)
		}
		roles = append(roles, id.Role(role))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role assignments: %w", err)
	}
	return roles, nil
}
