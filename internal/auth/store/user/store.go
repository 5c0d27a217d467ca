// Package user persists user accounts.
package user

import (
	"context"

	"lexdraft/internal/auth/models"
	id "lexdraft/pkg/domain"
)

// Store is the persistence port for users.
type Store interface {
	// CreateIfEmailAvailable inserts the user unless the email is already
	// registered within the tenant. Returns sentinel.ErrConflict otherwise.
	CreateIfEmailAvailable(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, tenantID id.TenantID, email string) (*models.User, error)
}
