package locker

import (
	"context"
	"sync"

	id "redressal/pkg/domain"
	"redressal/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.ComplaintID]*Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.ComplaintID]*Entry)}
}

func (s *InMemoryStore) Create(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.ComplaintID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	cp := *entry
	s.entries[entry.ComplaintID] = &cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, complaintID id.ComplaintID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[complaintID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *entry
	return &cp, nil
}

func (s *InMemoryStore) Update(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ComplaintID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *entry
	s.entries[entry.ComplaintID] = &cp
	return nil
}
