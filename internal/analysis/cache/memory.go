package cache

import (
	"context"
	"sync"

	"lexdraft/internal/analysis/models"
)

// MemoryCache is an unbounded in-process cache for unit tests.
type MemoryCache struct {
	mu      sync.Mutex
	results map[string]*models.Result
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{results: make(map[string]*models.Result)}
}

func (c *MemoryCache) Get(_ context.Context, contentKey string) (*models.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, ok := c.results[contentKey]
	if !ok {
		return nil, nil
	}
	copied := *result
	return &copied, nil
}

func (c *MemoryCache) Put(_ context.Context, contentKey string, result *models.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := *result
	c.results[contentKey] = &copied
	return nil
}
