package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"lexdraft/internal/auth/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
	txcontext "lexdraft/pkg/platform/tx"
)

// PostgresStore persists users in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE users (
//	    id            UUID PRIMARY KEY,
//	    tenant_id     UUID NOT NULL REFERENCES tenants(id),
//	    email         TEXT NOT NULL,
//	    name          TEXT NOT NULL,
//	    role          TEXT NOT NULL,
//	    password_hash BYTEA NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX users_tenant_email_idx ON users (tenant_id, LOWER(email));
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) CreateIfEmailAvailable(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, tenant_id, email, name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(user.ID),
		uuid.UUID(user.TenantID),
		user.Email,
		user.Name,
		string(user.Role),
		user.PasswordHash,
		user.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `
		SELECT id, tenant_id, email, name, role, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	return scanUser(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(userID)))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, tenantID id.TenantID, email string) (*models.User, error) {
	query := `
		SELECT id, tenant_id, email, name, role, password_hash, created_at
		FROM users
		WHERE tenant_id = $1 AND LOWER(email) = LOWER($2)
	`
	return scanUser(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(tenantID), email))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user     models.User
		userID   uuid.UUID
		tenantID uuid.UUID
		role     string
	)
	err := row.Scan(&userID, &tenantID, &user.Email, &user.Name, &role, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.ID = id.UserID(userID)
	user.TenantID = id.TenantID(tenantID)
	user.Role = models.Role(role)
	return &user, nil
}
