//go:build integration

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexdraft/internal/auth/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
	"lexdraft/pkg/testutil/containers"
)

func newSession(ttl time.Duration) *models.Session {
	now := time.Now().UTC()
	return &models.Session{
		ID:        id.NewSessionID(),
		UserID:    id.NewUserID(),
		TenantID:  id.NewTenantID(),
		Role:      models.RoleLawyer,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestRedisStoreLifecycle(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	session := newSession(time.Hour)
	require.NoError(t, store.Create(ctx, session))

	found, err := store.Find(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)
	assert.Equal(t, session.UserID, found.UserID)
	assert.Equal(t, session.TenantID, found.TenantID)
	assert.Equal(t, models.RoleLawyer, found.Role)
	assert.WithinDuration(t, session.ExpiresAt, found.ExpiresAt, time.Second)

	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Find(ctx, session.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisStoreRejectsExpiredSession(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)

	err := store.Create(context.Background(), newSession(-time.Minute))
	assert.ErrorIs(t, err, sentinel.ErrExpired)
}

func TestRedisStoreExpiresSessionByTTL(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	session := newSession(500 * time.Millisecond)
	require.NoError(t, store.Create(ctx, session))

	_, err := store.Find(ctx, session.ID)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := store.Find(ctx, session.ID)
		return errors.Is(err, sentinel.ErrNotFound)
	}, 5*time.Second, 100*time.Millisecond)
}
