package timeline

import (
	"context"
	"sort"
	"sync"

	id "redressal/pkg/domain"
)

// InMemoryStore keeps timeline entries per complaint. Append-only by
// construction: there is no update or delete surface.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.ComplaintID][]*Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.ComplaintID][]*Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries[entry.ComplaintID] = append(s.entries[entry.ComplaintID], &cp)
	return nil
}

func (s *InMemoryStore) ListByComplaint(_ context.Context, complaintID id.ComplaintID) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.entries[complaintID]
	out := make([]*Entry, 0, len(stored))
	for _, e := range stored {
		cp := *e
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
