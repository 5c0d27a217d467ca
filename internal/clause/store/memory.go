package store

import (
	"context"
	"sort"
	"sync"

	"lexdraft/internal/clause/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
)

// MemoryStore is an in-memory clause store for unit tests.
type MemoryStore struct {
	mu        sync.Mutex
	clauses   map[id.ClauseID]*models.Clause
	byVersion map[id.VersionID][]id.ClauseID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clauses:   make(map[id.ClauseID]*models.Clause),
		byVersion: make(map[id.VersionID][]id.ClauseID),
	}
}

func (s *MemoryStore) ReplaceForVersion(_ context.Context, versionID id.VersionID, clauses []*models.Clause) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clauseID := range s.byVersion[versionID] {
		delete(s.clauses, clauseID)
	}
	ids := make([]id.ClauseID, 0, len(clauses))
	for _, clause := range clauses {
		copied := *clause
		s.clauses[clause.ID] = &copied
		ids = append(ids, clause.ID)
	}
	s.byVersion[versionID] = ids
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, clauseID id.ClauseID) (*models.Clause, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clause, ok := s.clauses[clauseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *clause
	return &copied, nil
}

func (s *MemoryStore) ListByVersion(_ context.Context, versionID id.VersionID) ([]*models.Clause, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Clause, 0, len(s.byVersion[versionID]))
	for _, clauseID := range s.byVersion[versionID] {
		copied := *s.clauses[clauseID]
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}
