//go:build integration

package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexdraft/internal/audit"
	"lexdraft/internal/tenant/store"
	"lexdraft/pkg/platform/tx"
	"lexdraft/pkg/testutil/containers"
)

const tenantSchema = `
	CREATE TABLE tenants (
	    id         UUID PRIMARY KEY,
	    name       TEXT NOT NULL,
	    status     TEXT NOT NULL,
	    created_at TIMESTAMPTZ NOT NULL,
	    updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE UNIQUE INDEX tenants_name_lower_idx ON tenants (LOWER(name));
	CREATE TABLE audit_outbox (
	    id           UUID PRIMARY KEY,
	    tenant_id    UUID NOT NULL,
	    actor_id     UUID,
	    action       TEXT NOT NULL,
	    subject      TEXT NOT NULL,
	    detail       TEXT NOT NULL DEFAULT '',
	    request_id   TEXT NOT NULL DEFAULT '',
	    occurred_at  TIMESTAMPTZ NOT NULL,
	    published_at TIMESTAMPTZ
	);
	CREATE INDEX audit_outbox_pending_idx ON audit_outbox (occurred_at) WHERE published_at IS NULL;
`

func setupTenantSchema(t *testing.T) *containers.PostgresContainer {
	t.Helper()
	pg := containers.NewPostgresContainer(t)
	_, err := pg.DB.ExecContext(context.Background(), tenantSchema)
	require.NoError(t, err)
	return pg
}

func TestCreateCommitsTenantWithOutboxRow(t *testing.T) {
	pg := setupTenantSchema(t)
	ctx := context.Background()

	svc := New(
		store.NewPostgresStore(pg.DB),
		audit.NewPublisher(audit.NewPostgresStore(pg.DB)),
		nil,
		tx.NewSQLRunner(pg.DB),
	)

	tenant, err := svc.Create(ctx, "Acme Legal")
	require.NoError(t, err)

	var tenants, outbox int
	require.NoError(t, pg.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&tenants))
	require.NoError(t, pg.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_outbox WHERE tenant_id = $1 AND action = $2`,
		uuid.UUID(tenant.ID), audit.ActionTenantCreated,
	).Scan(&outbox))
	assert.Equal(t, 1, tenants)
	assert.Equal(t, 1, outbox)
}

// rejectingOutbox fails every append, standing in for an unavailable outbox
// table.
type rejectingOutbox struct {
	*audit.PostgresStore
}

func (s *rejectingOutbox) Append(ctx context.Context, event audit.Event) error {
	return assert.AnError
}

func TestCreateRollsBackTenantWhenOutboxFails(t *testing.T) {
	pg := setupTenantSchema(t)
	ctx := context.Background()

	svc := New(
		store.NewPostgresStore(pg.DB),
		audit.NewPublisher(&rejectingOutbox{audit.NewPostgresStore(pg.DB)}),
		nil,
		tx.NewSQLRunner(pg.DB),
	)

	_, err := svc.Create(ctx, "Acme Legal")
	require.Error(t, err)

	// The failed unit of work must not leave the tenant behind.
	var tenants int
	require.NoError(t, pg.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&tenants))
	assert.Zero(t, tenants)
}

func TestSuspendCommitsStatusWithOutboxRow(t *testing.T) {
	pg := setupTenantSchema(t)
	ctx := context.Background()

	svc := New(
		store.NewPostgresStore(pg.DB),
		audit.NewPublisher(audit.NewPostgresStore(pg.DB)),
		nil,
		tx.NewSQLRunner(pg.DB),
	)

	tenant, err := svc.Create(ctx, "Acme Legal")
	require.NoError(t, err)

	_, err = svc.Suspend(ctx, tenant.ID)
	require.NoError(t, err)

	var status string
	require.NoError(t, pg.DB.QueryRowContext(ctx,
		`SELECT status FROM tenants WHERE id = $1`, uuid.UUID(tenant.ID),
	).Scan(&status))
	assert.Equal(t, "suspended", status)

	var outbox int
	require.NoError(t, pg.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_outbox WHERE tenant_id = $1 AND action = $2`,
		uuid.UUID(tenant.ID), audit.ActionTenantSuspended,
	).Scan(&outbox))
	assert.Equal(t, 1, outbox)
}
