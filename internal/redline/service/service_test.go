package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexdraft/internal/audit"
	clausemodels "lexdraft/internal/clause/models"
	claustore "lexdraft/internal/clause/store"
	"lexdraft/internal/redline/models"
	"lexdraft/internal/redline/store"
	versionmodels "lexdraft/internal/version/models"
	versionstore "lexdraft/internal/version/store"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
)

type stubDocuments struct {
	owned map[id.DocumentID]id.TenantID
}

func (d *stubDocuments) check(tenantID id.TenantID, documentID id.DocumentID) error {
	owner, ok := d.owned[documentID]
	if !ok || owner != tenantID {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return nil
}

func (d *stubDocuments) RequireEditable(_ context.Context, tenantID id.TenantID, documentID id.DocumentID) error {
	return d.check(tenantID, documentID)
}

func (d *stubDocuments) RequireOwned(_ context.Context, tenantID id.TenantID, documentID id.DocumentID) error {
	return d.check(tenantID, documentID)
}

func (d *stubDocuments) Reindex(context.Context, id.DocumentID) error { return nil }

// memoryLedger backs the Ledger port with the in-memory version store.
type memoryLedger struct {
	versions *versionstore.MemoryStore
}

func (l *memoryLedger) AppendEntry(ctx context.Context, version *versionmodels.Version) error {
	return l.versions.Append(ctx, version)
}

func (l *memoryLedger) Latest(ctx context.Context, documentID id.DocumentID) (*versionmodels.Version, error) {
	return l.versions.FindLatest(ctx, documentID)
}

type fixture struct {
	svc        *Service
	ledger     *memoryLedger
	clauses    *claustore.MemoryStore
	auditStore *audit.MemoryStore
	tenantID   id.TenantID
	documentID id.DocumentID
	base       *versionmodels.Version
}

const baseContent = "1. Term\nThe agreement runs for one year.\n\n2. Liability\nLiability is unlimited."

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tenantID := id.NewTenantID()
	documentID := id.NewDocumentID()

	ledger := &memoryLedger{versions: versionstore.NewMemoryStore()}
	base, err := versionmodels.NewVersion(documentID, id.NewUserID(), baseContent, "initial upload", versionmodels.SourceUpload, time.Now())
	require.NoError(t, err)
	require.NoError(t, ledger.AppendEntry(context.Background(), base))

	clauses := claustore.NewMemoryStore()
	auditStore := audit.NewMemoryStore()
	svc := New(
		store.NewMemoryStore(),
		ledger,
		clauses,
		&stubDocuments{owned: map[id.DocumentID]id.TenantID{documentID: tenantID}},
		audit.NewPublisher(auditStore),
		nil,
		nil,
	)
	return &fixture{
		svc:        svc,
		ledger:     ledger,
		clauses:    clauses,
		auditStore: auditStore,
		tenantID:   tenantID,
		documentID: documentID,
		base:       base,
	}
}

func (f *fixture) decideAll(t *testing.T, redline *models.Redline, decision models.Decision) {
	t.Helper()
	for i := range redline.Hunks {
		_, err := f.svc.Decide(context.Background(), f.tenantID, redline.ID, i, decision)
		require.NoError(t, err)
	}
}

func TestCreateRedline(t *testing.T) {
	f := newFixture(t)
	proposed := "1. Term\nThe agreement runs for two years.\n\n2. Liability\nLiability is unlimited."

	redline, err := f.svc.Create(context.Background(), f.tenantID, f.documentID, nil, proposed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, redline.Status)
	assert.Equal(t, f.base.ID, redline.BaseVersionID)
	require.NotEmpty(t, redline.Hunks)
	for _, hunk := range redline.Hunks {
		assert.Equal(t, models.DecisionPending, hunk.Decision)
	}

	events := f.auditStore.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionRedlineCreated, events[0].Action)
}

func TestCreateRedlineNoChanges(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.tenantID, f.documentID, nil, baseContent)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestApplyAllAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proposed := "1. Term\nThe agreement runs for two years.\n\n2. Liability\nLiability is capped at fees paid."

	redline, err := f.svc.Create(ctx, f.tenantID, f.documentID, nil, proposed)
	require.NoError(t, err)
	f.decideAll(t, redline, models.DecisionAccepted)

	version, err := f.svc.Apply(ctx, f.tenantID, redline.ID)
	require.NoError(t, err)
	assert.Equal(t, proposed, version.Content)
	assert.Equal(t, versionmodels.SourceRedline, version.Source)
	assert.Equal(t, 2, version.Number)

	got, err := f.svc.Get(ctx, f.tenantID, redline.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, got.Status)

	// Reapplying a closed redline conflicts.
	_, err = f.svc.Apply(ctx, f.tenantID, redline.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestApplyAllRejectedKeepsOriginal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	redline, err := f.svc.Create(ctx, f.tenantID, f.documentID, nil, "Completely different text.")
	require.NoError(t, err)
	f.decideAll(t, redline, models.DecisionRejected)

	version, err := f.svc.Apply(ctx, f.tenantID, redline.ID)
	require.NoError(t, err)
	assert.Equal(t, baseContent, version.Content)
}

func TestApplyMixedDecisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proposed := "1. Term\nThe agreement runs for two years.\n\n2. Liability\nLiability is capped at fees paid."

	redline, err := f.svc.Create(ctx, f.tenantID, f.documentID, nil, proposed)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(redline.Hunks), 2)

	_, err = f.svc.Decide(ctx, f.tenantID, redline.ID, 0, models.DecisionAccepted)
	require.NoError(t, err)
	for i := 1; i < len(redline.Hunks); i++ {
		_, err = f.svc.Decide(ctx, f.tenantID, redline.ID, i, models.DecisionRejected)
		require.NoError(t, err)
	}

	version, err := f.svc.Apply(ctx, f.tenantID, redline.ID)
	require.NoError(t, err)
	assert.Contains(t, version.Content, "two years")
	assert.Contains(t, version.Content, "Liability is unlimited.")
}

func TestApplyUndecidedConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	redline, err := f.svc.Create(ctx, f.tenantID, f.documentID, nil, "New text entirely.")
	require.NoError(t, err)

	_, err = f.svc.Apply(ctx, f.tenantID, redline.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestApplyStaleBaseConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	redline, err := f.svc.Create(ctx, f.tenantID, f.documentID, nil, "New text entirely.")
	require.NoError(t, err)
	f.decideAll(t, redline, models.DecisionAccepted)

	// Someone else appends first.
	newer, err := versionmodels.NewVersion(f.documentID, id.NewUserID(), "Overtaken content.", "manual edit", versionmodels.SourceManual, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.ledger.AppendEntry(ctx, newer))

	_, err = f.svc.Apply(ctx, f.tenantID, redline.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestClauseScopedRedline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clauseStart := len("1. Term\nThe agreement runs for one year.\n\n")
	clause := &clausemodels.Clause{
		ID:         id.NewClauseID(),
		DocumentID: f.documentID,
		VersionID:  f.base.ID,
		Index:      1,
		Heading:    "2. Liability",
		Start:      clauseStart,
		End:        len(baseContent),
		Text:       baseContent[clauseStart:],
		CreatedAt:  time.Now(),
	}
	require.NoError(t, f.clauses.ReplaceForVersion(ctx, f.base.ID, []*clausemodels.Clause{clause}))

	proposed := "2. Liability\nLiability is capped at fees paid."
	redline, err := f.svc.Create(ctx, f.tenantID, f.documentID, &clause.ID, proposed)
	require.NoError(t, err)
	f.decideAll(t, redline, models.DecisionAccepted)

	version, err := f.svc.Apply(ctx, f.tenantID, redline.ID)
	require.NoError(t, err)
	// The untouched clause survives; only the targeted clause changed.
	assert.Equal(t, "1. Term\nThe agreement runs for one year.\n\n"+proposed, version.Content)
}

func TestDiscard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	redline, err := f.svc.Create(ctx, f.tenantID, f.documentID, nil, "New text entirely.")
	require.NoError(t, err)
	require.NoError(t, f.svc.Discard(ctx, f.tenantID, redline.ID))

	got, err := f.svc.Get(ctx, f.tenantID, redline.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDiscarded, got.Status)

	_, err = f.svc.Decide(ctx, f.tenantID, redline.ID, 0, models.DecisionAccepted)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRedlineScopedToTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	redline, err := f.svc.Create(ctx, f.tenantID, f.documentID, nil, "New text entirely.")
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, id.NewTenantID(), redline.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
