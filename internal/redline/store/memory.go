package store

import (
	"context"
	"sort"
	"sync"

	"lexdraft/internal/redline/engine"
	"lexdraft/internal/redline/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
)

// MemoryStore is an in-memory redline store for unit tests.
type MemoryStore struct {
	mu       sync.Mutex
	redlines map[id.RedlineID]*models.Redline
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{redlines: make(map[id.RedlineID]*models.Redline)}
}

func clone(redline *models.Redline) *models.Redline {
	copied := *redline
	copied.Segments = append([]engine.Segment(nil), redline.Segments...)
	copied.Hunks = append([]models.Hunk(nil), redline.Hunks...)
	return &copied
}

func (s *MemoryStore) Create(_ context.Context, redline *models.Redline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.redlines[redline.ID] = clone(redline)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, redlineID id.RedlineID) (*models.Redline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	redline, ok := s.redlines[redlineID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(redline), nil
}

func (s *MemoryStore) ListByDocument(_ context.Context, documentID id.DocumentID) ([]*models.Redline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Redline
	for _, redline := range s.redlines {
		if redline.DocumentID != documentID {
			continue
		}
		out = append(out, clone(redline))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Execute(_ context.Context, redlineID id.RedlineID, validate func(*models.Redline) error, mutate func(*models.Redline)) (*models.Redline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	redline, ok := s.redlines[redlineID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(redline); err != nil {
		return nil, err
	}
	mutate(redline)
	return clone(redline), nil
}
