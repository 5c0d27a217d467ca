package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	id "lexdraft/pkg/domain"
)

// PgFTS implements Index on PostgreSQL full-text search. It maintains its
// own denormalized table so the query path never touches ledger rows.
//
// Schema:
//
//	CREATE TABLE search_documents (
//	    document_id UUID PRIMARY KEY,
//	    tenant_id   UUID NOT NULL,
//	    title       TEXT NOT NULL,
//	    body        TEXT NOT NULL,
//	    fts         TSVECTOR GENERATED ALWAYS AS
//	                (to_tsvector('english', title || ' ' || body)) STORED
//	);
//	CREATE INDEX search_documents_fts_idx ON search_documents USING GIN (fts);
//	CREATE INDEX search_documents_tenant_idx ON search_documents (tenant_id);
type PgFTS struct {
	db *sql.DB
}

func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

func (p *PgFTS) Upsert(ctx context.Context, record Record) error {
	query := `
		INSERT INTO search_documents (document_id, tenant_id, title, body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id) DO UPDATE SET title = EXCLUDED.title, body = EXCLUDED.body
	`
	_, err := p.db.ExecContext(ctx, query,
		uuid.UUID(record.DocumentID),
		uuid.UUID(record.TenantID),
		record.Title,
		record.Body,
	)
	if err != nil {
		return fmt.Errorf("upsert search document: %w", err)
	}
	return nil
}

func (p *PgFTS) Delete(ctx context.Context, documentID id.DocumentID) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM search_documents WHERE document_id = $1`, uuid.UUID(documentID))
	if err != nil {
		return fmt.Errorf("delete search document: %w", err)
	}
	return nil
}

func (p *PgFTS) Search(ctx context.Context, tenantID id.TenantID, text string, limit int) ([]Hit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT document_id, title,
			ts_headline('english', body, websearch_to_tsquery('english', $2), 'MaxFragments=1,MaxWords=30') AS snippet
		FROM search_documents
		WHERE tenant_id = $1 AND fts @@ websearch_to_tsquery('english', $2)
		ORDER BY ts_rank(fts, websearch_to_tsquery('english', $2)) DESC
		LIMIT $3
	`
	rows, err := p.db.QueryContext(ctx, query, uuid.UUID(tenantID), text, limit)
	if err != nil {
		return nil, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			hit   Hit
			docID uuid.UUID
		)
		if err := rows.Scan(&docID, &hit.Title, &hit.Snippet); err != nil {
			return nil, fmt.Errorf("pgfts scan: %w", err)
		}
		hit.DocumentID = id.DocumentID(docID)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}
