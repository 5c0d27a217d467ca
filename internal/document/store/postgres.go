package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lexdraft/internal/document/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
	txcontext "lexdraft/pkg/platform/tx"
)

// PostgresStore persists documents in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE documents (
//	    id                UUID PRIMARY KEY,
//	    tenant_id         UUID NOT NULL REFERENCES tenants(id),
//	    title             TEXT NOT NULL,
//	    original_filename TEXT NOT NULL,
//	    content_type      TEXT NOT NULL,
//	    size_bytes        BIGINT NOT NULL,
//	    page_count        INT NOT NULL DEFAULT 0,
//	    status            TEXT NOT NULL,
//	    created_by        UUID NOT NULL,
//	    blob_key          TEXT NOT NULL,
//	    created_at        TIMESTAMPTZ NOT NULL,
//	    updated_at        TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX documents_tenant_idx ON documents (tenant_id, created_at DESC);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// begin starts a transaction, or joins one already carried by the context;
// owned reports whether this call must commit it.
func (s *PostgresStore) begin(ctx context.Context) (*sql.Tx, bool, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return tx, false, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	return tx, true, nil
}

const selectDocuments = `
	SELECT id, tenant_id, title, original_filename, content_type, size_bytes, page_count, status, created_by, blob_key, created_at, updated_at
	FROM documents
`

func (s *PostgresStore) Create(ctx context.Context, document *models.Document) error {
	query := `
		INSERT INTO documents (id, tenant_id, title, original_filename, content_type, size_bytes, page_count, status, created_by, blob_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(document.ID),
		uuid.UUID(document.TenantID),
		document.Title,
		document.OriginalFilename,
		document.ContentType,
		document.SizeBytes,
		document.PageCount,
		string(document.Status),
		uuid.UUID(document.CreatedBy),
		document.BlobKey,
		document.CreatedAt,
		document.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	query := selectDocuments + ` WHERE id = $1`
	return scanDocument(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(documentID)))
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.TenantID, filter Filter) ([]*models.Document, error) {
	query := selectDocuments + ` WHERE tenant_id = $1`
	args := []any{uuid.UUID(tenantID)}
	if filter.Status != nil {
		query += ` AND status = $2`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, document)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Execute(ctx context.Context, documentID id.DocumentID, validate func(*models.Document) error, mutate func(*models.Document)) (*models.Document, error) {
	tx, owned, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	if owned {
		defer func() { _ = tx.Rollback() }()
	}

	row := tx.QueryRowContext(ctx, selectDocuments+` WHERE id = $1 FOR UPDATE`, uuid.UUID(documentID))
	document, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	if err := validate(document); err != nil {
		return nil, err
	}
	mutate(document)

	_, err = tx.ExecContext(ctx, `
		UPDATE documents SET title = $2, status = $3, updated_at = $4 WHERE id = $1
	`, uuid.UUID(document.ID), document.Title, string(document.Status), document.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	if owned {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit document update: %w", err)
		}
	}
	return document, nil
}

func (s *PostgresStore) Delete(ctx context.Context, documentID id.DocumentID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, uuid.UUID(documentID))
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		document   models.Document
		documentID uuid.UUID
		tenantID   uuid.UUID
		createdBy  uuid.UUID
		status     string
	)
	err := row.Scan(&documentID, &tenantID, &document.Title, &document.OriginalFilename, &document.ContentType, &document.SizeBytes, &document.PageCount, &status, &createdBy, &document.BlobKey, &document.CreatedAt, &document.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	document.ID = id.DocumentID(documentID)
	document.TenantID = id.TenantID(tenantID)
	document.CreatedBy = id.UserID(createdBy)
	document.Status = models.Status(status)
	return &document, nil
}
