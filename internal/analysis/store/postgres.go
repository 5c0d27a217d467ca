package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"lexdraft/internal/analysis/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
	txcontext "lexdraft/pkg/platform/tx"
)

// PostgresStore persists analysis jobs in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE analysis_jobs (
//	    id          UUID PRIMARY KEY,
//	    tenant_id   UUID NOT NULL REFERENCES tenants(id),
//	    document_id UUID NOT NULL REFERENCES documents(id),
//	    version_id  UUID NOT NULL REFERENCES versions(id),
//	    clause_id   UUID NOT NULL,
//	    state       TEXT NOT NULL,
//	    error       TEXT NOT NULL DEFAULT '',
//	    result      JSONB,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX analysis_jobs_pending ON analysis_jobs (created_at) WHERE state = 'pending';
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
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

func (s *PostgresStore) ReplaceForVersion(ctx context.Context, versionID id.VersionID, jobs []*models.Job) error {
	tx, owned, err := s.begin(ctx)
	if err != nil {
		return err
	}
	if owned {
		defer func() { _ = tx.Rollback() }()
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM analysis_jobs WHERE version_id = $1`, uuid.UUID(versionID)); err != nil {
		return fmt.Errorf("clear analysis jobs: %w", err)
	}

	insert := `
		INSERT INTO analysis_jobs (id, tenant_id, document_id, version_id, clause_id, state, error, result, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8, $9)
	`
	for _, job := range jobs {
		_, err := tx.ExecContext(ctx, insert,
			uuid.UUID(job.ID),
			uuid.UUID(job.TenantID),
			uuid.UUID(job.DocumentID),
			uuid.UUID(job.VersionID),
			uuid.UUID(job.ClauseID),
			string(job.State),
			job.Error,
			job.CreatedAt,
			job.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert analysis job: %w", err)
		}
	}
	if owned {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit analysis jobs: %w", err)
		}
	}
	return nil
}

const selectJobs = `
	SELECT id, tenant_id, document_id, version_id, clause_id, state, error, result, created_at, updated_at
	FROM analysis_jobs
`

// ClaimPending relies on SKIP LOCKED so concurrent workers divide the
// queue instead of blocking on each other.
func (s *PostgresStore) ClaimPending(ctx context.Context, limit int) ([]*models.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE analysis_jobs SET state = 'running', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM analysis_jobs
			WHERE state = 'pending'
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, tenant_id, document_id, version_id, clause_id, state, error, result, created_at, updated_at
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim analysis jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (s *PostgresStore) Complete(ctx context.Context, jobID id.AnalysisID, result *models.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE analysis_jobs SET state = 'done', error = '', result = $2, updated_at = NOW()
		WHERE id = $1
	`, uuid.UUID(jobID), payload)
	if err != nil {
		return fmt.Errorf("complete analysis job: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Fail(ctx context.Context, jobID id.AnalysisID, errMsg string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE analysis_jobs SET state = 'failed', error = $2, updated_at = NOW()
		WHERE id = $1
	`, uuid.UUID(jobID), errMsg)
	if err != nil {
		return fmt.Errorf("fail analysis job: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ListByVersion(ctx context.Context, versionID id.VersionID) ([]*models.Job, error) {
	rows, err := s.db.QueryContext(ctx, selectJobs+` WHERE version_id = $1 ORDER BY created_at, id`, uuid.UUID(versionID))
	if err != nil {
		return nil, fmt.Errorf("list analysis jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func collectJobs(rows *sql.Rows) ([]*models.Job, error) {
	var out []*models.Job
	for rows.Next() {
		var (
			job        models.Job
			jobID      uuid.UUID
			tenantID   uuid.UUID
			documentID uuid.UUID
			versionID  uuid.UUID
			clauseID   uuid.UUID
			state      string
			result     []byte
		)
		err := rows.Scan(&jobID, &tenantID, &documentID, &versionID, &clauseID, &state, &job.Error, &result, &job.CreatedAt, &job.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan analysis job: %w", err)
		}
		job.ID = id.AnalysisID(jobID)
		job.TenantID = id.TenantID(tenantID)
		job.DocumentID = id.DocumentID(documentID)
		job.VersionID = id.VersionID(versionID)
		job.ClauseID = id.ClauseID(clauseID)
		job.State = models.JobState(state)
		if len(result) > 0 {
			job.Result = &models.Result{}
			if err := json.Unmarshal(result, job.Result); err != nil {
				return nil, fmt.Errorf("unmarshal analysis result: %w", err)
			}
		}
		out = append(out, &job)
	}
	return out, rows.Err()
}
