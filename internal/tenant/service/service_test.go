package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexdraft/internal/audit"
	"lexdraft/internal/tenant/models"
	"lexdraft/internal/tenant/store"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
)

func newFixture(t *testing.T) (*Service, *audit.MemoryStore) {
	t.Helper()
	auditStore := audit.NewMemoryStore()
	return New(store.NewMemoryStore(), audit.NewPublisher(auditStore), nil, nil), auditStore
}

func TestCreateAndGet(t *testing.T) {
	svc, auditStore := newFixture(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, "  Acme Legal  ")
	require.NoError(t, err)
	assert.Equal(t, "Acme Legal", tenant.Name)
	assert.Equal(t, models.StatusActive, tenant.Status)

	got, err := svc.Get(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, got.ID)

	byName, err := svc.GetByName(ctx, "acme legal")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, byName.ID)

	events := auditStore.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionTenantCreated, events[0].Action)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "Acme Legal")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "Acme Legal")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Create(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestSuspendAndReactivate(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, "Acme Legal")
	require.NoError(t, err)
	require.NoError(t, svc.RequireActive(ctx, tenant.ID))

	suspended, err := svc.Suspend(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuspended, suspended.Status)

	err = svc.RequireActive(ctx, tenant.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	// Suspending twice is a conflict, not a no-op.
	_, err = svc.Suspend(ctx, tenant.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	reactivated, err := svc.Reactivate(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, reactivated.Status)
	require.NoError(t, svc.RequireActive(ctx, tenant.ID))

	_, err = svc.Reactivate(ctx, tenant.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestGetUnknownTenant(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Get(context.Background(), id.NewTenantID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

// spanRunner runs the unit of work directly while recording which store
// writes happened inside it.
type spanRunner struct {
	calls int
	open  bool
}

func (r *spanRunner) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	r.calls++
	r.open = true
	defer func() { r.open = false }()
	return fn(ctx)
}

type spanTenantStore struct {
	*store.MemoryStore
	runner       *spanRunner
	createInside bool
}

func (s *spanTenantStore) CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error {
	s.createInside = s.runner.open
	return s.MemoryStore.CreateIfNameAvailable(ctx, tenant)
}

type spanAuditStore struct {
	*audit.MemoryStore
	runner       *spanRunner
	appendInside bool
}

func (s *spanAuditStore) Append(ctx context.Context, event audit.Event) error {
	s.appendInside = s.runner.open
	return s.MemoryStore.Append(ctx, event)
}

func TestCreateCommitsTenantAndAuditTogether(t *testing.T) {
	runner := &spanRunner{}
	tenants := &spanTenantStore{MemoryStore: store.NewMemoryStore(), runner: runner}
	auditStore := &spanAuditStore{MemoryStore: audit.NewMemoryStore(), runner: runner}
	svc := New(tenants, audit.NewPublisher(auditStore), nil, runner)

	_, err := svc.Create(context.Background(), "Acme Legal")
	require.NoError(t, err)

	assert.Equal(t, 1, runner.calls)
	assert.True(t, tenants.createInside, "tenant insert ran outside the unit of work")
	assert.True(t, auditStore.appendInside, "audit append ran outside the unit of work")
	assert.Len(t, auditStore.Events(), 1)
}

func TestSuspendCommitsStatusAndAuditTogether(t *testing.T) {
	runner := &spanRunner{}
	auditStore := &spanAuditStore{MemoryStore: audit.NewMemoryStore(), runner: runner}
	svc := New(store.NewMemoryStore(), audit.NewPublisher(auditStore), nil, runner)

	tenant, err := svc.Create(context.Background(), "Acme Legal")
	require.NoError(t, err)

	auditStore.appendInside = false
	_, err = svc.Suspend(context.Background(), tenant.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, runner.calls)
	assert.True(t, auditStore.appendInside, "audit append ran outside the unit of work")
}

type failingAuditStore struct {
	*audit.MemoryStore
}

func (s *failingAuditStore) Append(context.Context, audit.Event) error {
	return errors.New("outbox unavailable")
}

func TestCreateFailsWhenAuditAppendFails(t *testing.T) {
	auditor := audit.NewPublisher(&failingAuditStore{audit.NewMemoryStore()})
	svc := New(store.NewMemoryStore(), auditor, nil, nil)

	_, err := svc.Create(context.Background(), "Acme Legal")
	require.Error(t, err)
}
