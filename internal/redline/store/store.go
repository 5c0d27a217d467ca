// Package store persists redlines.
package store

import (
	"context"

	"lexdraft/internal/redline/models"
	id "lexdraft/pkg/domain"
)

// Store is the persistence port for redlines.
type Store interface {
	Create(ctx context.Context, redline *models.Redline) error
	FindByID(ctx context.Context, redlineID id.RedlineID) (*models.Redline, error)
	// ListByDocument returns the document's redlines, newest first.
	ListByDocument(ctx context.Context, documentID id.DocumentID) ([]*models.Redline, error)
	// Execute atomically validates and mutates a redline. The callbacks
	// run with the row locked so concurrent decisions cannot race an apply.
	Execute(ctx context.Context, redlineID id.RedlineID, validate func(*models.Redline) error, mutate func(*models.Redline)) (*models.Redline, error)
}
