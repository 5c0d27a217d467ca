package audit

import (
	"context"
	"sync"

	id "lexdraft/pkg/domain"
)

// MemoryStore keeps audit events in memory for unit tests and local
// development.
type MemoryStore struct {
	mu        sync.Mutex
	events    []Event
	published map[id.EventID]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{published: make(map[id.EventID]bool)}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) ListPending(_ context.Context, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]Event, 0, limit)
	for _, event := range s.events {
		if s.published[event.ID] {
			continue
		}
		pending = append(pending, event)
		if len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

func (s *MemoryStore) MarkPublished(_ context.Context, eventIDs []id.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, eventID := range eventIDs {
		s.published[eventID] = true
	}
	return nil
}

func (s *MemoryStore) ListByTenant(_ context.Context, tenantID id.TenantID, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(matched) < limit; i-- {
		if s.events[i].TenantID == tenantID {
			matched = append(matched, s.events[i])
		}
	}
	return matched, nil
}

// Events returns a snapshot of everything appended, oldest first.
// Test helper.
func (s *MemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]Event, len(s.events))
	copy(snapshot, s.events)
	return snapshot
}
