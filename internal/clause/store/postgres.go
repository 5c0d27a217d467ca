package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lexdraft/internal/clause/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
	txcontext "lexdraft/pkg/platform/tx"
)

// PostgresStore persists clauses in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE clauses (
//	    id          UUID PRIMARY KEY,
//	    document_id UUID NOT NULL REFERENCES documents(id),
//	    version_id  UUID NOT NULL REFERENCES versions(id),
//	    idx         INT NOT NULL,
//	    heading     TEXT NOT NULL DEFAULT '',
//	    span_start  INT NOT NULL,
//	    span_end    INT NOT NULL,
//	    text        TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    UNIQUE (version_id, idx)
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
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

func (s *PostgresStore) ReplaceForVersion(ctx context.Context, versionID id.VersionID, clauses []*models.Clause) error {
	tx, owned, err := s.begin(ctx)
	if err != nil {
		return err
	}
	if owned {
		defer func() { _ = tx.Rollback() }()
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM clauses WHERE version_id = $1`, uuid.UUID(versionID)); err != nil {
		return fmt.Errorf("clear clauses: %w", err)
	}

	insert := `
		INSERT INTO clauses (id, document_id, version_id, idx, heading, span_start, span_end, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, clause := range clauses {
		_, err := tx.ExecContext(ctx, insert,
			uuid.UUID(clause.ID),
			uuid.UUID(clause.DocumentID),
			uuid.UUID(clause.VersionID),
			clause.Index,
			clause.Heading,
			clause.Start,
			clause.End,
			clause.Text,
			clause.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert clause: %w", err)
		}
	}
	if owned {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit clause replace: %w", err)
		}
	}
	return nil
}

const selectClauses = `
	SELECT id, document_id, version_id, idx, heading, span_start, span_end, text, created_at
	FROM clauses
`

func (s *PostgresStore) FindByID(ctx context.Context, clauseID id.ClauseID) (*models.Clause, error) {
	row := s.execer(ctx).QueryRowContext(ctx, selectClauses+` WHERE id = $1`, uuid.UUID(clauseID))
	return scanClause(row)
}

func (s *PostgresStore) ListByVersion(ctx context.Context, versionID id.VersionID) ([]*models.Clause, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, selectClauses+` WHERE version_id = $1 ORDER BY idx`, uuid.UUID(versionID))
	if err != nil {
		return nil, fmt.Errorf("list clauses: %w", err)
	}
	defer rows.Close()

	var out []*models.Clause
	for rows.Next() {
		clause, err := scanClause(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, clause)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClause(row rowScanner) (*models.Clause, error) {
	var (
		clause     models.Clause
		clauseID   uuid.UUID
		documentID uuid.UUID
		versionID  uuid.UUID
	)
	err := row.Scan(&clauseID, &documentID, &versionID, &clause.Index, &clause.Heading, &clause.Start, &clause.End, &clause.Text, &clause.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan clause: %w", err)
	}
	clause.ID = id.ClauseID(clauseID)
	clause.DocumentID = id.DocumentID(documentID)
	clause.VersionID = id.VersionID(versionID)
	return &clause, nil
}
