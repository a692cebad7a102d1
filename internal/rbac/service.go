// Package rbac answers "does principal P hold role R?" and manages role
// assignments. Authority flows only from the role-assignment relation; no
// profile field ever grants it.
//
// The store layer is a pure predicate/mutation surface with no
// self-authorization. The admin-only restriction on Grant and Revoke is
// enforced here, in the service, which keeps the trust chain acyclic: the
// registry never consults itself to decide whether it may be mutated.
package rbac

import (
	"context"
	"log/slog"

	"redressal/internal/audit"
	id "redressal/pkg/domain"
	dErrors "redressal/pkg/domain-errors"
)

// Store persists (principal, role) assignments. Grant must be idempotent: a
// duplicate pair is a no-op, not an error.
type Store interface {
	Grant(ctx context.Context, principalID id.PrincipalID, role id.Role) error
	Revoke(ctx context.Context, principalID id.PrincipalID, role id.Role) error
	HasRole(ctx context.Context, principalID id.PrincipalID, role id.Role) (bool, error)
	RolesOf(ctx context.Context, principalID id.PrincipalID) ([]id.Role, error)
}

// AuditPublisher receives role-change events for the operational trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) bool
}

type Service struct {
	store     Store
	logger    *slog.Logger
	publisher AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// HasRole reports whether the principal holds the role. This read feeds
// authorization decisions, so it always goes to the primary store.
func (s *Service) HasRole(ctx context.Context, principalID id.PrincipalID, role id.Role) (bool, error) {
	held, err := s.store.HasRole(ctx, principalID, role)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check role")
	}
	return held, nil
}

// RolesOf lists the roles a principal holds.
func (s *Service) RolesOf(ctx context.Context, principalID id.PrincipalID) ([]id.Role, error) {
	roles, err := s.store.RolesOf(ctx, principalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list roles")
	}
	return roles, nil
}

// Grant assigns a role to a principal. Only admins may grant; granting an
// already-held role is a no-op.
func (s *Service) Grant(ctx context.Context, actorID, principalID id.PrincipalID, role id.Role) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	if err := s.store.Grant(ctx, principalID, role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant role")
	}
	s.emit(ctx, audit.Event{
		Action:  audit.ActionRoleGranted,
		ActorID: actorID,
		Subject: principalID.String(),
		Reason:  role.String(),
	})
	return nil
}

// Revoke removes a role assignment. Only admins may revoke.
func (s *Service) Revoke(ctx context.Context, actorID, principalID id.PrincipalID, role id.Role) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	if err := s.store.Revoke(ctx, principalID, role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke role")
	}
	s.emit(ctx, audit.Event{
		Action:  audit.ActionRoleRevoked,
		ActorID: actorID,
		Subject: principalID.String(),
		Reason:  role.String(),
	})
	return nil
}

// BootstrapAdmin grants the admin role without an acting admin. The caller is
// responsible for guarding this path; it exists only so the first admin can be
// seeded on a fresh deployment, authorized by the bootstrap token instead of a
// role. The grant is still audited.
func (s *Service) BootstrapAdmin(ctx context.Context, principalID id.PrincipalID) error {
	if err := s.store.Grant(ctx, principalID, id.RoleAdmin); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant role")
	}
	s.emit(ctx, audit.Event{
		Action:  audit.ActionRoleGranted,
		Subject: principalID.String(),
		Reason:  id.RoleAdmin.String(),
	})
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, actorID id.PrincipalID) error {
	isAdmin, err := s.store.HasRole(ctx, actorID, id.RoleAdmin)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin role")
	}
	if !isAdmin {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	if !s.publisher.Emit(ctx, event) {
		s.logger.WarnContext(ctx, "audit event dropped",
			"action", string(event.Action),
			"subject", event.Subject,
		)
	}
}
