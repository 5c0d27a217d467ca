// Package store persists tenants. Memory and Postgres implementations share
// the Store interface; the Execute callback keeps validate-then-mutate atomic
// (mutex in memory, SELECT ... FOR UPDATE in Postgres).
package store

import (
	"context"

	"lexdraft/internal/tenant/models"
	id "lexdraft/pkg/domain"
)

// Store is the persistence port for tenants.
type Store interface {
	// CreateIfNameAvailable inserts the tenant unless another tenant already
	// holds the name (case-insensitive). Returns sentinel.ErrConflict when
	// the name is taken.
	CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	FindByName(ctx context.Context, name string) (*models.Tenant, error)
	// Execute loads the tenant, runs validate under the store's lock, applies
	// mutate, and persists the result.
	Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error)
}
