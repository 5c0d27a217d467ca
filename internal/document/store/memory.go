package store

import (
	"context"
	"sort"
	"sync"

	"lexdraft/internal/document/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
)

// MemoryStore is an in-memory document store for unit tests and local
// development.
type MemoryStore struct {
	mu        sync.Mutex
	documents map[id.DocumentID]*models.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{documents: make(map[id.DocumentID]*models.Document)}
}

func (s *MemoryStore) Create(_ context.Context, document *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *document
	s.documents[document.ID] = &copied
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, documentID id.DocumentID) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	document, ok := s.documents[documentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *document
	return &copied, nil
}

func (s *MemoryStore) ListByTenant(_ context.Context, tenantID id.TenantID, filter Filter) ([]*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Document
	for _, document := range s.documents {
		if document.TenantID != tenantID {
			continue
		}
		if filter.Status != nil && document.Status != *filter.Status {
			continue
		}
		copied := *document
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Execute(_ context.Context, documentID id.DocumentID, validate func(*models.Document) error, mutate func(*models.Document)) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	document, ok := s.documents[documentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(document); err != nil {
		return nil, err
	}
	mutate(document)
	copied := *document
	return &copied, nil
}

func (s *MemoryStore) Delete(_ context.Context, documentID id.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[documentID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.documents, documentID)
	return nil
}
