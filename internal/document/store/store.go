// Package store persists documents.
package store

import (
	"context"

	"lexdraft/internal/document/models"
	id "lexdraft/pkg/domain"
)

// Filter narrows ListByTenant.
type Filter struct {
	Status *models.Status
}

// Store is the persistence port for documents.
type Store interface {
	Create(ctx context.Context, document *models.Document) error
	FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error)
	// ListByTenant returns the tenant's documents, newest first.
	ListByTenant(ctx context.Context, tenantID id.TenantID, filter Filter) ([]*models.Document, error)
	// Execute atomically validates and mutates a document. The callbacks
	// run with the row locked so workflow checks cannot race.
	Execute(ctx context.Context, documentID id.DocumentID, validate func(*models.Document) error, mutate func(*models.Document)) (*models.Document, error)
	Delete(ctx context.Context, documentID id.DocumentID) error
}
