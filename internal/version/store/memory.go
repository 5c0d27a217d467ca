package store

import (
	"context"
	"sort"
	"sync"

	"lexdraft/internal/version/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
)

// MemoryStore is an in-memory ledger for unit tests and local development.
type MemoryStore struct {
	mu       sync.Mutex
	versions map[id.VersionID]*models.Version
	byDoc    map[id.DocumentID][]id.VersionID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		versions: make(map[id.VersionID]*models.Version),
		byDoc:    make(map[id.DocumentID][]id.VersionID),
	}
}

func (s *MemoryStore) Append(_ context.Context, version *models.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	version.Number = len(s.byDoc[version.DocumentID]) + 1
	copied := *version
	s.versions[version.ID] = &copied
	s.byDoc[version.DocumentID] = append(s.byDoc[version.DocumentID], version.ID)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, versionID id.VersionID) (*models.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version, ok := s.versions[versionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *version
	return &copied, nil
}

func (s *MemoryStore) FindLatest(_ context.Context, documentID id.DocumentID) (*models.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byDoc[documentID]
	if len(ids) == 0 {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.versions[ids[len(ids)-1]]
	return &copied, nil
}

func (s *MemoryStore) ListByDocument(_ context.Context, documentID id.DocumentID) ([]*models.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Version, 0, len(s.byDoc[documentID]))
	for _, versionID := range s.byDoc[documentID] {
		copied := *s.versions[versionID]
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out, nil
}
