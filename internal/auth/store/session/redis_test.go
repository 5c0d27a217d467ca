package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"lexdraft/internal/auth/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), srv
}

func testSession(ttl time.Duration) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:        id.NewSessionID(),
		UserID:    id.NewUserID(),
		TenantID:  id.NewTenantID(),
		Role:      models.RoleLawyer,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	sess := testSession(time.Hour)
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := store.Find(ctx, sess.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if loaded.UserID != sess.UserID || loaded.TenantID != sess.TenantID || loaded.Role != sess.Role {
		t.Fatalf("loaded session mismatch: %+v vs %+v", loaded, sess)
	}
}

func TestRedisStoreMissingSession(t *testing.T) {
	store, _ := newRedisStore(t)

	_, err := store.Find(context.Background(), id.NewSessionID())
	if !errors.Is(err, sentinel.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	store, srv := newRedisStore(t)
	ctx := context.Background()

	sess := testSession(time.Minute)
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}

	srv.FastForward(2 * time.Minute)

	_, err := store.Find(ctx, sess.ID)
	if !errors.Is(err, sentinel.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	sess := testSession(time.Hour)
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Find(ctx, sess.ID); !errors.Is(err, sentinel.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRedisStoreRejectsAlreadyExpired(t *testing.T) {
	store, _ := newRedisStore(t)

	sess := testSession(-time.Minute)
	if err := store.Create(context.Background(), sess); !errors.Is(err, sentinel.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}
