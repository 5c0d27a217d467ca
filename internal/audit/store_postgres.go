package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "lexdraft/pkg/domain"
	txcontext "lexdraft/pkg/platform/tx"
)

// PostgresStore implements Store using an outbox table. Events are written
// in the caller's transaction when one is carried in ctx, so an audit row
// commits atomically with its domain change.
//
// Schema:
//
//	CREATE TABLE audit_outbox (
//	    id           UUID PRIMARY KEY,
//	    tenant_id    UUID NOT NULL,
//	    actor_id     UUID,
//	    action       TEXT NOT NULL,
//	    subject      TEXT NOT NULL,
//	    detail       TEXT NOT NULL DEFAULT '',
//	    request_id   TEXT NOT NULL DEFAULT '',
//	    occurred_at  TIMESTAMPTZ NOT NULL,
//	    published_at TIMESTAMPTZ
//	);
//	CREATE INDEX audit_outbox_pending_idx ON audit_outbox (occurred_at) WHERE published_at IS NULL;
//	CREATE INDEX audit_outbox_tenant_idx ON audit_outbox (tenant_id, occurred_at DESC);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var actorID *uuid.UUID
	if !event.ActorID.IsNil() {
		actor := uuid.UUID(event.ActorID)
		actorID = &actor
	}
	query := `
		INSERT INTO audit_outbox (id, tenant_id, actor_id, action, subject, detail, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(event.ID),
		uuid.UUID(event.TenantID),
		actorID,
		event.Action,
		event.Subject,
		event.Detail,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPending(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT id, tenant_id, actor_id, action, subject, detail, request_id, occurred_at
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY occurred_at
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) MarkPublished(ctx context.Context, eventIDs []id.EventID) error {
	if len(eventIDs) == 0 {
		return nil
	}
	raw := make([]uuid.UUID, len(eventIDs))
	for i, eventID := range eventIDs {
		raw[i] = uuid.UUID(eventID)
	}
	query := `
		UPDATE audit_outbox SET published_at = NOW() WHERE id = ANY($1)
	`
	if _, err := s.db.ExecContext(ctx, query, pq.Array(raw)); err != nil {
		return fmt.Errorf("mark audit events published: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.TenantID, limit int) ([]Event, error) {
	query := `
		SELECT id, tenant_id, actor_id, action, subject, detail, request_id, occurred_at
		FROM audit_outbox
		WHERE tenant_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), limit)
	if err != nil {
		return nil, fmt.Errorf("query tenant audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			event    Event
			eventID  uuid.UUID
			tenantID uuid.UUID
			actorID  *uuid.UUID
		)
		err := rows.Scan(&eventID, &tenantID, &actorID, &event.Action, &event.Subject, &event.Detail, &event.RequestID, &event.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = id.EventID(eventID)
		event.TenantID = id.TenantID(tenantID)
		if actorID != nil {
			event.ActorID = id.UserID(*actorID)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
