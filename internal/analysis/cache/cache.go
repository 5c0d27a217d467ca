// Package cache memoizes analysis results by clause content, so identical
// clauses across documents and versions hit the model only once.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"lexdraft/internal/analysis/models"
)

// Cache stores analysis results keyed by clause content hash. A miss is
// (nil, nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, contentKey string) (*models.Result, error)
	Put(ctx context.Context, contentKey string, result *models.Result) error
}

// ContentKey derives the cache key for a clause's text.
func ContentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
