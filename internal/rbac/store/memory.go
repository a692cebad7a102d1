package store

import (
	"context"
	"sync"

	id "redressal/pkg/domain"
)

// InMemory keeps role assignments in a set keyed by principal.
type InMemory struct {
	mu    sync.RWMutex
	roles map[id.PrincipalID]map[id.Role]bool
}

func NewInMemory() *InMemory {
	return &InMemory{roles: make(map[id.PrincipalID]map[id.Role]bool)}
}

// Grant is idempotent: granting an already-held role is a no-op.
func (s *InMemory) Grant(_ context.Context, principalID id.PrincipalID, role id.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	held, ok := s.roles[principalID]
	if !ok {
		held = make(map[id.Role]bool)
		s.roles[principalID] = held
	}
	held[role] = true
	return nil
}

func (s *InMemory) Revoke(_ context.Context, principalID id.PrincipalID, role id.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles[principalID], role)
	return nil
}

func (s *InMemory) HasRole(_ context.Context, principalID id.PrincipalID, role id.Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles[principalID][role], nil
}

func (s *InMemory) RolesOf(_ context.Context, principalID id.PrincipalID) ([]id.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	held := s.roles[principalID]
	out := make([]id.Role, 0, len(held))
	// Stable order keeps responses deterministic.
	for _, role := range []id.Role{id.RoleStudent, id.RoleStaff, id.RoleAdmin} {
		if held[role] {
			out = append(out, role)
		}
	}
	return out, nil
}
