package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lexdraft/internal/redline/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
	txcontext "lexdraft/pkg/platform/tx"
)

// PostgresStore persists redlines in PostgreSQL. Segments and hunks are
// frozen at creation, so they live in JSONB columns; only status and hunk
// decisions are rewritten afterwards.
//
// Schema:
//
//	CREATE TABLE redlines (
//	    id              UUID PRIMARY KEY,
//	    document_id     UUID NOT NULL REFERENCES documents(id),
//	    base_version_id UUID NOT NULL REFERENCES versions(id),
//	    clause_id       UUID,
//	    proposed        TEXT NOT NULL,
//	    segments        JSONB NOT NULL,
//	    hunks           JSONB NOT NULL,
//	    status          TEXT NOT NULL,
//	    author_id       UUID NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL,
//	    updated_at      TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX redlines_document_idx ON redlines (document_id, created_at DESC);
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

const selectRedlines = `
	SELECT id, document_id, base_version_id, clause_id, proposed, segments, hunks, status, author_id, created_at, updated_at
	FROM redlines
`

func (s *PostgresStore) Create(ctx context.Context, redline *models.Redline) error {
	segments, err := json.Marshal(redline.Segments)
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	hunks, err := json.Marshal(redline.Hunks)
	if err != nil {
		return fmt.Errorf("marshal hunks: %w", err)
	}

	var clauseID any
	if redline.ClauseID != nil {
		clauseID = uuid.UUID(*redline.ClauseID)
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO redlines (id, document_id, base_version_id, clause_id, proposed, segments, hunks, status, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		uuid.UUID(redline.ID),
		uuid.UUID(redline.DocumentID),
		uuid.UUID(redline.BaseVersionID),
		clauseID,
		redline.Proposed,
		segments,
		hunks,
		string(redline.Status),
		uuid.UUID(redline.AuthorID),
		redline.CreatedAt,
		redline.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert redline: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, redlineID id.RedlineID) (*models.Redline, error) {
	row := s.execer(ctx).QueryRowContext(ctx, selectRedlines+` WHERE id = $1`, uuid.UUID(redlineID))
	return scanRedline(row)
}

func (s *PostgresStore) ListByDocument(ctx context.Context, documentID id.DocumentID) ([]*models.Redline, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, selectRedlines+` WHERE document_id = $1 ORDER BY created_at DESC`, uuid.UUID(documentID))
	if err != nil {
		return nil, fmt.Errorf("list redlines: %w", err)
	}
	defer rows.Close()

	var out []*models.Redline
	for rows.Next() {
		redline, err := scanRedline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, redline)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Execute(ctx context.Context, redlineID id.RedlineID, validate func(*models.Redline) error, mutate func(*models.Redline)) (*models.Redline, error) {
	tx, owned, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	if owned {
		defer func() { _ = tx.Rollback() }()
	}

	row := tx.QueryRowContext(ctx, selectRedlines+` WHERE id = $1 FOR UPDATE`, uuid.UUID(redlineID))
	redline, err := scanRedline(row)
	if err != nil {
		return nil, err
	}
	if err := validate(redline); err != nil {
		return nil, err
	}
	mutate(redline)

	hunks, err := json.Marshal(redline.Hunks)
	if err != nil {
		return nil, fmt.Errorf("marshal hunks: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE redlines SET hunks = $2, status = $3, updated_at = $4 WHERE id = $1
	`, uuid.UUID(redline.ID), hunks, string(redline.Status), redline.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update redline: %w", err)
	}
	if owned {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit redline update: %w", err)
		}
	}
	return redline, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRedline(row rowScanner) (*models.Redline, error) {
	var (
		redline       models.Redline
		redlineID     uuid.UUID
		documentID    uuid.UUID
		baseVersionID uuid.UUID
		clauseID      uuid.NullUUID
		segments      []byte
		hunks         []byte
		status        string
		authorID      uuid.UUID
	)
	err := row.Scan(&redlineID, &documentID, &baseVersionID, &clauseID, &redline.Proposed, &segments, &hunks, &status, &authorID, &redline.CreatedAt, &redline.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan redline: %w", err)
	}
	redline.ID = id.RedlineID(redlineID)
	redline.DocumentID = id.DocumentID(documentID)
	redline.BaseVersionID = id.VersionID(baseVersionID)
	if clauseID.Valid {
		cid := id.ClauseID(clauseID.UUID)
		redline.ClauseID = &cid
	}
	redline.Status = models.Status(status)
	redline.AuthorID = id.UserID(authorID)
	if err := json.Unmarshal(segments, &redline.Segments); err != nil {
		return nil, fmt.Errorf("unmarshal segments: %w", err)
	}
	if err := json.Unmarshal(hunks, &redline.Hunks); err != nil {
		return nil, fmt.Errorf("unmarshal hunks: %w", err)
	}
	return &redline, nil
}
