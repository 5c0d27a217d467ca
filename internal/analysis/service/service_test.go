package service

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lexdraft/internal/analysis/analyzer"
	"lexdraft/internal/analysis/cache"
	"lexdraft/internal/analysis/models"
	"lexdraft/internal/analysis/store"
	"lexdraft/internal/audit"
	clausemodels "lexdraft/internal/clause/models"
	claustore "lexdraft/internal/clause/store"
	"lexdraft/internal/llm/mocks"
	versionmodels "lexdraft/internal/version/models"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/sentinel"
)

const assessmentJSON = `{"risk_level":"high","issues":["uncapped liability"],"suggested_text":"Liability is capped at fees paid.","rationale":"No liability cap."}`

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

type fixture struct {
	svc        *Service
	client     *mocks.MockClient
	auditStore *audit.MemoryStore
	tenantID   id.TenantID
	documentID id.DocumentID
	versionID  id.VersionID
}

func newFixture(t *testing.T, clauseTexts []string) *fixture {
	t.Helper()

	tenantID := id.NewTenantID()
	documentID := id.NewDocumentID()

	version, err := versionmodels.NewVersion(documentID, id.NewUserID(), "contract body", "initial upload", versionmodels.SourceUpload, time.Now())
	require.NoError(t, err)
	version.Number = 1

	clauses := make([]*clausemodels.Clause, 0, len(clauseTexts))
	for i, text := range clauseTexts {
		clauses = append(clauses, &clausemodels.Clause{
			ID:         id.NewClauseID(),
			DocumentID: documentID,
			VersionID:  version.ID,
			Index:      i,
			Text:       text,
			CreatedAt:  time.Now(),
		})
	}
	clauseStore := claustore.NewMemoryStore()
	require.NoError(t, clauseStore.ReplaceForVersion(context.Background(), version.ID, clauses))

	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().Name().Return("test-model").AnyTimes()

	auditStore := audit.NewMemoryStore()
	svc := New(
		store.NewMemoryStore(),
		clauseStore,
		analyzer.New(client),
		cache.NewMemoryCache(),
		&stubLedger{latest: map[id.DocumentID]*versionmodels.Version{documentID: version}},
		&stubDocuments{owned: map[id.DocumentID]id.TenantID{documentID: tenantID}},
		stubTenants{},
		audit.NewPublisher(auditStore),
		nil,
		slog.Default(),
		nil,
	)
	return &fixture{
		svc:        svc,
		client:     client,
		auditStore: auditStore,
		tenantID:   tenantID,
		documentID: documentID,
		versionID:  version.ID,
	}
}

func TestRequestAndProcess(t *testing.T) {
	f := newFixture(t, []string{"Clause one text.", "Clause two text."})
	ctx := context.Background()

	f.client.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(assessmentJSON, nil).
		Times(2)

	queued, err := f.svc.Request(ctx, f.tenantID, f.documentID)
	require.NoError(t, err)
	assert.Equal(t, 2, queued)

	processed, err := f.svc.ProcessPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	jobs, err := f.svc.Results(ctx, f.tenantID, f.documentID)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	for _, job := range jobs {
		assert.Equal(t, models.JobDone, job.State)
		require.NotNil(t, job.Result)
		assert.Equal(t, models.RiskHigh, job.Result.RiskLevel)
		assert.Equal(t, job.ClauseID, job.Result.ClauseID)
		assert.Equal(t, "test-model", job.Result.Model)
	}

	events := f.auditStore.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionDocumentAnalysisRequested, events[0].Action)
}

func TestIdenticalClausesHitCache(t *testing.T) {
	same := "The same boilerplate clause."
	f := newFixture(t, []string{same, same, same})
	ctx := context.Background()

	// One model call serves all three clauses.
	f.client.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(assessmentJSON, nil).
		Times(1)

	_, err := f.svc.Request(ctx, f.tenantID, f.documentID)
	require.NoError(t, err)
	_, err = f.svc.ProcessPending(ctx, 10)
	require.NoError(t, err)

	jobs, err := f.svc.Results(ctx, f.tenantID, f.documentID)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	for _, job := range jobs {
		assert.Equal(t, models.JobDone, job.State)
		require.NotNil(t, job.Result)
		assert.Equal(t, job.ClauseID, job.Result.ClauseID)
	}
}

func TestFailedJobKeepsError(t *testing.T) {
	f := newFixture(t, []string{"Clause text."})
	ctx := context.Background()

	f.client.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("rate limited"))

	_, err := f.svc.Request(ctx, f.tenantID, f.documentID)
	require.NoError(t, err)
	_, err = f.svc.ProcessPending(ctx, 10)
	require.NoError(t, err)

	jobs, err := f.svc.Results(ctx, f.tenantID, f.documentID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobFailed, jobs[0].State)
	assert.Contains(t, jobs[0].Error, "rate limited")
	assert.Nil(t, jobs[0].Result)
}

func TestRequestWithoutClausesConflicts(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Request(context.Background(), f.tenantID, f.documentID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRequestReplacesPreviousJobs(t *testing.T) {
	f := newFixture(t, []string{"Clause text."})
	ctx := context.Background()

	f.client.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(assessmentJSON, nil).
		AnyTimes()

	_, err := f.svc.Request(ctx, f.tenantID, f.documentID)
	require.NoError(t, err)
	_, err = f.svc.ProcessPending(ctx, 10)
	require.NoError(t, err)

	// Re-requesting resets the queue to pending.
	_, err = f.svc.Request(ctx, f.tenantID, f.documentID)
	require.NoError(t, err)

	jobs, err := f.svc.Results(ctx, f.tenantID, f.documentID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobPending, jobs[0].State)
}
