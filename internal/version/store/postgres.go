package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"lexdraft/internal/version/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
	txcontext "lexdraft/pkg/platform/tx"
)

// PostgresStore persists the ledger in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE versions (
//	    id             UUID PRIMARY KEY,
//	    document_id    UUID NOT NULL REFERENCES documents(id),
//	    number         INT NOT NULL,
//	    author_id      UUID NOT NULL,
//	    change_summary TEXT NOT NULL DEFAULT '',
//	    content        TEXT NOT NULL,
//	    content_sha256 TEXT NOT NULL,
//	    source         TEXT NOT NULL,
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    UNIQUE (document_id, number)
//	);
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

// Append computes the next number inside the insert so the unique
// (document_id, number) constraint is the arbiter under concurrency. When a
// concurrent append wins the race the insert violates the constraint and we
// retry once; the ledger itself never skips or reuses a number. Inside a
// caller-owned transaction the violation has already aborted it, so the
// error surfaces instead and the whole unit of work rolls back.
func (s *PostgresStore) Append(ctx context.Context, version *models.Version) error {
	query := `
		INSERT INTO versions (id, document_id, number, author_id, change_summary, content, content_sha256, source, created_at)
		SELECT $1, $2, COALESCE(MAX(number), 0) + 1, $3, $4, $5, $6, $7, $8
		FROM versions
		WHERE document_id = $2
		RETURNING number
	`
	for attempt := 0; ; attempt++ {
		err := s.execer(ctx).QueryRowContext(ctx, query,
			uuid.UUID(version.ID),
			uuid.UUID(version.DocumentID),
			uuid.UUID(version.AuthorID),
			version.ChangeSummary,
			version.Content,
			version.ContentSHA256,
			string(version.Source),
			version.CreatedAt,
		).Scan(&version.Number)
		if err == nil {
			return nil
		}
		if _, joined := txcontext.From(ctx); attempt == 0 && !joined && isUniqueViolation(err) {
			continue
		}
		return fmt.Errorf("append version: %w", err)
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *PostgresStore) FindByID(ctx context.Context, versionID id.VersionID) (*models.Version, error) {
	query := selectVersions + ` WHERE id = $1`
	return scanVersion(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(versionID)))
}

func (s *PostgresStore) FindLatest(ctx context.Context, documentID id.DocumentID) (*models.Version, error) {
	query := selectVersions + ` WHERE document_id = $1 ORDER BY number DESC LIMIT 1`
	return scanVersion(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(documentID)))
}

func (s *PostgresStore) ListByDocument(ctx context.Context, documentID id.DocumentID) ([]*models.Version, error) {
	query := selectVersions + ` WHERE document_id = $1 ORDER BY number DESC`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(documentID))
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []*models.Version
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, version)
	}
	return out, rows.Err()
}

const selectVersions = `
	SELECT id, document_id, number, author_id, change_summary, content, content_sha256, source, created_at
	FROM versions
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*models.Version, error) {
	var (
		version    models.Version
		versionID  uuid.UUID
		documentID uuid.UUID
		authorID   uuid.UUID
		source     string
	)
	err := row.Scan(&versionID, &documentID, &version.Number, &authorID, &version.ChangeSummary, &version.Content, &version.ContentSHA256, &source, &version.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan version: %w", err)
	}
	version.ID = id.VersionID(versionID)
	version.DocumentID = id.DocumentID(documentID)
	version.AuthorID = id.UserID(authorID)
	version.Source = models.Source(source)
	return &version, nil
}
