// Package store persists the version ledger.
package store

import (
	"context"

	"lexdraft/internal/version/models"
	id "lexdraft/pkg/domain"
)

// Store is the persistence port for the ledger. The ledger is append-only;
// there are no update or delete operations.
type Store interface {
	// Append assigns the next number for the document and inserts the
	// entry. Assignment and insert are atomic so numbers never collide
	// under concurrent appends.
	Append(ctx context.Context, version *models.Version) error
	FindByID(ctx context.Context, versionID id.VersionID) (*models.Version, error)
	// FindLatest returns the highest-numbered entry for the document, or
	// sentinel.ErrNotFound when the ledger is empty.
	FindLatest(ctx context.Context, documentID id.DocumentID) (*models.Version, error)
	// ListByDocument returns entries newest first.
	ListByDocument(ctx context.Context, documentID id.DocumentID) ([]*models.Version, error)
}
