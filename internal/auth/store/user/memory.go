package user

import (
	"context"
	"strings"
	"sync"

	"lexdraft/internal/auth/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
)

// MemoryStore is an in-memory user store for unit tests and local
// development.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[id.UserID]*models.User)}
}

func (s *MemoryStore) CreateIfEmailAvailable(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lowered := strings.ToLower(user.Email)
	for _, existing := range s.users {
		if existing.TenantID == user.TenantID && strings.ToLower(existing.Email) == lowered {
			return sentinel.ErrConflict
		}
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, tenantID id.TenantID, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lowered := strings.ToLower(email)
	for _, user := range s.users {
		if user.TenantID == tenantID && strings.ToLower(user.Email) == lowered {
			copied := *user
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
