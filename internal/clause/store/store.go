// Package store persists clauses.
package store

import (
	"context"

	"lexdraft/internal/clause/models"
	id "lexdraft/pkg/domain"
)

// Store is the persistence port for clauses.
type Store interface {
	// ReplaceForVersion atomically swaps the version's clause set.
	// Re-segmenting never leaves a mix of old and new clauses behind.
	ReplaceForVersion(ctx context.Context, versionID id.VersionID, clauses []*models.Clause) error
	FindByID(ctx context.Context, clauseID id.ClauseID) (*models.Clause, error)
	// ListByVersion returns clauses in document order.
	ListByVersion(ctx context.Context, versionID id.VersionID) ([]*models.Clause, error)
}
