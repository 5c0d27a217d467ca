package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexdraft/internal/audit"
	"lexdraft/internal/clause/segmenter"
	"lexdraft/internal/clause/store"
	versionmodels "lexdraft/internal/version/models"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/sentinel"
)

type stubDocuments struct {
	owned map[id.DocumentID]id.TenantID
}

func (d *stubDocuments) RequireOwned(_ context.Context, tenantID id.TenantID, documentID id.DocumentID) error {
	owner, ok := d.owned[documentID]
	if !ok || owner != tenantID {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return nil
}

type stubTenants struct{}

func (stubTenants) RequireActive(context.Context, id.TenantID) error { return nil }

type stubLedger struct {
	latest map[id.DocumentID]*versionmodels.Version
}

func (l *stubLedger) Latest(_ context.Context, documentID id.DocumentID) (*versionmodels.Version, error) {
	v, ok := l.latest[documentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return v, nil
}

func newFixture(t *testing.T) (*Service, *audit.MemoryStore, id.TenantID, id.DocumentID, *stubLedger) {
	t.Helper()

	tenantID := id.NewTenantID()
	documentID := id.NewDocumentID()

	content := "1. Scope\nThe works.\n\n2. Payment\nNet thirty."
	version, err := versionmodels.NewVersion(documentID, id.NewUserID(), content, "initial upload", versionmodels.SourceUpload, time.Now())
	require.NoError(t, err)
	version.Number = 1

	ledger := &stubLedger{latest: map[id.DocumentID]*versionmodels.Version{documentID: version}}
	auditStore := audit.NewMemoryStore()
	svc := New(
		store.NewMemoryStore(),
		segmenter.NewHeuristic(),
		ledger,
		&stubDocuments{owned: map[id.DocumentID]id.TenantID{documentID: tenantID}},
		stubTenants{},
		audit.NewPublisher(auditStore),
		nil,
	)
	return svc, auditStore, tenantID, documentID, ledger
}

func TestSegmentAndList(t *testing.T) {
	svc, auditStore, tenantID, documentID, _ := newFixture(t)
	ctx := context.Background()

	clauses, err := svc.Segment(ctx, tenantID, documentID)
	require.NoError(t, err)
	require.Len(t, clauses, 2)
	assert.Equal(t, "1. Scope", clauses[0].Heading)
	assert.Equal(t, 0, clauses[0].Index)
	assert.Equal(t, 1, clauses[1].Index)

	listed, err := svc.List(ctx, tenantID, documentID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, clauses[0].ID, listed[0].ID)

	events := auditStore.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionDocumentClausesSegmented, events[0].Action)
	assert.Equal(t, documentID.String(), events[0].Subject)
}

func TestSegmentReplacesPrevious(t *testing.T) {
	svc, _, tenantID, documentID, _ := newFixture(t)
	ctx := context.Background()

	first, err := svc.Segment(ctx, tenantID, documentID)
	require.NoError(t, err)
	second, err := svc.Segment(ctx, tenantID, documentID)
	require.NoError(t, err)

	// Old clauses are gone, not appended to.
	listed, err := svc.List(ctx, tenantID, documentID)
	require.NoError(t, err)
	require.Len(t, listed, len(second))
	assert.NotEqual(t, first[0].ID, listed[0].ID)

	_, err = svc.Get(ctx, tenantID, first[0].ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSegmentUnknownDocument(t *testing.T) {
	svc, _, tenantID, _, _ := newFixture(t)

	_, err := svc.Segment(context.Background(), tenantID, id.NewDocumentID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSegmentWrongTenant(t *testing.T) {
	svc, _, _, documentID, _ := newFixture(t)

	_, err := svc.Segment(context.Background(), id.NewTenantID(), documentID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestGetMasksForeignClause(t *testing.T) {
	svc, _, tenantID, documentID, _ := newFixture(t)
	ctx := context.Background()

	clauses, err := svc.Segment(ctx, tenantID, documentID)
	require.NoError(t, err)

	got, err := svc.Get(ctx, tenantID, clauses[0].ID)
	require.NoError(t, err)
	assert.Equal(t, clauses[0].Text, got.Text)

	_, err = svc.Get(ctx, id.NewTenantID(), clauses[0].ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
