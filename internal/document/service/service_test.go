package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexdraft/internal/audit"
	"lexdraft/internal/document/extract"
	"lexdraft/internal/document/models"
	"lexdraft/internal/document/store"
	"lexdraft/internal/platform/blob"
	"lexdraft/internal/search"
	versionservice "lexdraft/internal/version/service"
	versionstore "lexdraft/internal/version/store"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/requestcontext"
)

type stubTenants struct {
	suspended map[id.TenantID]bool
}

func (s *stubTenants) RequireActive(_ context.Context, tenantID id.TenantID) error {
	if s.suspended[tenantID] {
		return dErrors.New(dErrors.CodeForbidden, "tenant is suspended")
	}
	return nil
}

type fixture struct {
	svc        *Service
	auditStore *audit.MemoryStore
	blobs      *blob.MemoryStore
	index      *search.MemoryIndex
	ledger     *versionservice.Ledger
	tenants    *stubTenants
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	auditStore := audit.NewMemoryStore()
	auditor := audit.NewPublisher(auditStore)
	blobs := blob.NewMemoryStore()
	index := search.NewMemoryIndex()
	ledger := versionservice.NewLedger(versionstore.NewMemoryStore(), auditor, nil)
	tenants := &stubTenants{suspended: make(map[id.TenantID]bool)}

	svc := New(
		store.NewMemoryStore(),
		ledger,
		blobs,
		extract.New(),
		index,
		tenants,
		auditor,
		nil,
		slog.Default(),
		nil,
	)
	return &fixture{
		svc:        svc,
		auditStore: auditStore,
		blobs:      blobs,
		index:      index,
		ledger:     ledger,
		tenants:    tenants,
	}
}

const contractText = "1. Term\nThe agreement runs for one year.\n\n2. Liability\nLiability is unlimited."

func upload(t *testing.T, f *fixture, tenantID id.TenantID) *models.Document {
	t.Helper()
	ctx := requestcontext.WithUserID(context.Background(), id.NewUserID())
	document, err := f.svc.Upload(ctx, tenantID, "Master Services Agreement", "msa.txt", "text/plain", []byte(contractText))
	require.NoError(t, err)
	return document
}

func TestUploadCreatesVersionOne(t *testing.T) {
	f := newFixture(t)
	tenantID := id.NewTenantID()

	document := upload(t, f, tenantID)
	assert.Equal(t, models.StatusDraft, document.Status)
	assert.Equal(t, 1, document.CurrentVersion)
	assert.Equal(t, "Master Services Agreement", document.Title)

	latest, err := f.ledger.Latest(context.Background(), document.ID)
	require.NoError(t, err)
	assert.Equal(t, contractText, latest.Content)
	assert.Equal(t, 1, latest.Number)

	// Original bytes are retrievable unchanged.
	got, data, err := f.svc.DownloadOriginal(context.Background(), tenantID, document.ID)
	require.NoError(t, err)
	assert.Equal(t, document.ID, got.ID)
	assert.Equal(t, contractText, string(data))

	// Upload indexes the extracted text for search.
	hits, err := f.index.Search(context.Background(), tenantID, "liability", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, document.ID, hits[0].DocumentID)
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(context.Background(), id.NewTenantID(), "Empty", "empty.txt", "text/plain", nil)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestUploadRejectsUnsupportedContentType(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(context.Background(), id.NewTenantID(), "Sheet", "sheet.xlsx", "application/vnd.ms-excel", []byte("data"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestUploadBlockedForSuspendedTenant(t *testing.T) {
	f := newFixture(t)
	tenantID := id.NewTenantID()
	f.tenants.suspended[tenantID] = true

	_, err := f.svc.Upload(context.Background(), tenantID, "Blocked", "b.txt", "text/plain", []byte("text"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestGetMasksForeignDocument(t *testing.T) {
	f := newFixture(t)
	tenantID := id.NewTenantID()
	document := upload(t, f, tenantID)

	got, err := f.svc.Get(context.Background(), tenantID, document.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentVersion)

	_, err = f.svc.Get(context.Background(), id.NewTenantID(), document.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	tenantID := id.NewTenantID()
	ctx := context.Background()

	first := upload(t, f, tenantID)
	upload(t, f, tenantID)

	_, err := f.svc.SubmitForReview(ctx, tenantID, first.ID)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, tenantID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	draft := models.StatusDraft
	drafts, err := f.svc.List(ctx, tenantID, &draft)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.NotEqual(t, first.ID, drafts[0].ID)

	bogus := models.Status("signed-in-blood")
	_, err = f.svc.List(ctx, tenantID, &bogus)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestUpdateTitleReindexes(t *testing.T) {
	f := newFixture(t)
	tenantID := id.NewTenantID()
	ctx := context.Background()
	document := upload(t, f, tenantID)

	renamed, err := f.svc.UpdateTitle(ctx, tenantID, document.ID, "Amended MSA")
	require.NoError(t, err)
	assert.Equal(t, "Amended MSA", renamed.Title)

	hits, err := f.index.Search(ctx, tenantID, "amended", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	_, err = f.svc.UpdateTitle(ctx, tenantID, document.ID, "   ")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestWorkflowHappyPath(t *testing.T) {
	f := newFixture(t)
	tenantID := id.NewTenantID()
	ctx := context.Background()
	document := upload(t, f, tenantID)

	steps := []func(context.Context, id.TenantID, id.DocumentID) (*models.Document, error){
		f.svc.SubmitForReview,
		f.svc.Approve,
		f.svc.SendForSignature,
		f.svc.Complete,
	}
	want := []models.Status{models.StatusReview, models.StatusApproval, models.StatusSignature, models.StatusCompleted}
	for i, step := range steps {
		got, err := step(ctx, tenantID, document.ID)
		require.NoError(t, err)
		assert.Equal(t, want[i], got.Status)
	}

	// Completed is terminal.
	_, err := f.svc.SubmitForReview(ctx, tenantID, document.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestWorkflowRejectsSkippedStates(t *testing.T) {
	f := newFixture(t)
	tenantID := id.NewTenantID()
	ctx := context.Background()
	document := upload(t, f, tenantID)

	_, err := f.svc.Approve(ctx, tenantID, document.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = f.svc.Complete(ctx, tenantID, document.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRequestChangesReturnsToDraft(t *testing.T) {
	f := newFixture(t)
	tenantID := id.NewTenantID()
	ctx := context.Background()
	document := upload(t, f, tenantID)

	_, err := f.svc.SubmitForReview(ctx, tenantID, document.ID)
	require.NoError(t, err)

	got, err := f.svc.RequestChanges(ctx, tenantID, document.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, got.Status)
}

func TestRequireEditableFreezesAfterApproval(t *testing.T) {
	f := newFixture(t)
	tenantID := id.NewTenantID()
	ctx := context.Background()
	document := upload(t, f, tenantID)

	require.NoError(t, f.svc.RequireEditable(ctx, tenantID, document.ID))

	_, err := f.svc.SubmitForReview(ctx, tenantID, document.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.RequireEditable(ctx, tenantID, document.ID))

	_, err = f.svc.Approve(ctx, tenantID, document.ID)
	require.NoError(t, err)
	err = f.svc.RequireEditable(ctx, tenantID, document.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestDeleteOnlyDrafts(t *testing.T) {
	f := newFixture(t)
	tenantID := id.NewTenantID()
	ctx := context.Background()

	document := upload(t, f, tenantID)
	_, err := f.svc.SubmitForReview(ctx, tenantID, document.ID)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, tenantID, document.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	draft := upload(t, f, tenantID)
	require.NoError(t, f.svc.Delete(ctx, tenantID, draft.ID))

	_, err = f.svc.Get(ctx, tenantID, draft.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	// Blob and index entry go with the document.
	_, _, err = f.svc.DownloadOriginal(ctx, tenantID, draft.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	hits, err := f.index.Search(ctx, tenantID, "liability", 10)
	require.NoError(t, err)
	for _, hit := range hits {
		assert.NotEqual(t, draft.ID, hit.DocumentID)
	}
}

func TestWorkflowAuditTrail(t *testing.T) {
	f := newFixture(t)
	tenantID := id.NewTenantID()
	ctx := context.Background()
	document := upload(t, f, tenantID)

	_, err := f.svc.SubmitForReview(ctx, tenantID, document.ID)
	require.NoError(t, err)

	var transitions []audit.Event
	for _, event := range f.auditStore.Events() {
		if event.Action == audit.ActionDocumentWorkflowAdvanced {
			transitions = append(transitions, event)
		}
	}
	require.Len(t, transitions, 1)
	assert.Equal(t, document.ID.String(), transitions[0].Subject)
	assert.Equal(t, "draft->review", transitions[0].Detail)
}
