package store

import (
	"context"
	"strings"
	"sync"

	"lexdraft/internal/tenant/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
)

// MemoryStore is an in-memory tenant store for unit tests and local
// development.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tenants: make(map[id.TenantID]*models.Tenant)}
}

func (s *MemoryStore) CreateIfNameAvailable(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lowered := strings.ToLower(tenant.Name)
	for _, existing := range s.tenants {
		if strings.ToLower(existing.Name) == lowered {
			return sentinel.ErrConflict
		}
	}
	copied := *tenant
	s.tenants[tenant.ID] = &copied
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *tenant
	return &copied, nil
}

func (s *MemoryStore) FindByName(_ context.Context, name string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lowered := strings.ToLower(name)
	for _, tenant := range s.tenants {
		if strings.ToLower(tenant.Name) == lowered {
			copied := *tenant
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) Execute(_ context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(tenant); err != nil {
		return nil, err
	}
	mutate(tenant)
	copied := *tenant
	return &copied, nil
}
