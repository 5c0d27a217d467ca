// Package session persists login sessions.
package session

import (
	"context"

	"lexdraft/internal/auth/models"
	id "lexdraft/pkg/domain"
)

// Store is the persistence port for sessions. Implementations expire
// sessions on their own; a lookup after expiry returns
// sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
}
