package store

import (
	"context"
	"sort"
	"sync"

	"redressal/internal/complaint"
	id "redressal/pkg/domain"
	"redressal/pkg/platform/sentinel"
)

// InMemory keeps complaint records in a map. Pair it with
// complaint.NewInMemoryTx so conflicting writers serialize; the store itself
// only guarantees per-call consistency.
type InMemory struct {
	mu         sync.RWMutex
	complaints map[id.ComplaintID]*complaint.Complaint
}

func NewInMemory() *InMemory {
	return &InMemory{complaints: make(map[id.ComplaintID]*complaint.Complaint)}
}

func (s *InMemory) Create(_ context.Context, c *complaint.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.complaints[c.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	cp := *c
	s.complaints[c.ID] = &cp
	return nil
}

func (s *InMemory) Get(_ context.Context, complaintID id.ComplaintID) (*complaint.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.complaints[complaintID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) Update(_ context.Context, c *complaint.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.complaints[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *c
	s.complaints[c.ID] = &cp
	return nil
}

func (s *InMemory) CountActiveBySubmitter(_ context.Context, submitterID id.PrincipalID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, c := range s.complaints {
		if c.SubmitterID == submitterID && c.IsActive() {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) ListBySubmitter(_ context.Context, submitterID id.PrincipalID) ([]*complaint.Complaint, error) {
	return s.list(func(c *complaint.Complaint) bool { return c.SubmitterID == submitterID }), nil
}

func (s *InMemory) ListByAssignee(_ context.Context, staffID id.PrincipalID) ([]*complaint.Complaint, error) {
	return s.list(func(c *complaint.Complaint) bool {
		return c.AssignedTo != nil && *c.AssignedTo == staffID
	}), nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*complaint.Complaint, error) {
	return s.list(func(*complaint.Complaint) bool { return true }), nil
}

// list returns copies matching the filter, newest first.
func (s *InMemory) list(match func(*complaint.Complaint) bool) []*complaint.Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*complaint.Complaint
	for _, c := range s.complaints {
		if match(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
