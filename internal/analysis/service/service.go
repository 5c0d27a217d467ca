// Package service orchestrates asynchronous clause risk analysis.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"lexdraft/internal/analysis/analyzer"
	"lexdraft/internal/analysis/cache"
	analysismetrics "lexdraft/internal/analysis/metrics"
	"lexdraft/internal/analysis/models"
	"lexdraft/internal/analysis/store"
	"lexdraft/internal/audit"
	clausemodels "lexdraft/internal/clause/models"
	versionmodels "lexdraft/internal/version/models"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/sentinel"
	"lexdraft/pkg/platform/tx"
	"lexdraft/pkg/requestcontext"
)

const pollInterval = 2 * time.Second

// Clauses is the slice of the clause store this package needs.
type Clauses interface {
	FindByID(ctx context.Context, clauseID id.ClauseID) (*clausemodels.Clause, error)
	ListByVersion(ctx context.Context, versionID id.VersionID) ([]*clausemodels.Clause, error)
}

// Documents is the slice of the document service this package needs.
type Documents interface {
	RequireOwned(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) error
}

// TenantGate blocks operations for suspended tenants.
type TenantGate interface {
	RequireActive(ctx context.Context, tenantID id.TenantID) error
}

// Ledger reads the current version of a document.
type Ledger interface {
	Latest(ctx context.Context, documentID id.DocumentID) (*versionmodels.Version, error)
}

// Service queues analyses and runs the worker pool that drains them.
type Service struct {
	jobs      store.Store
	clauses   Clauses
	analyzer  *analyzer.Analyzer
	cache     cache.Cache
	ledger    Ledger
	documents Documents
	tenants   TenantGate
	auditor   *audit.Publisher
	metrics   *analysismetrics.Metrics
	logger    *slog.Logger
	runner    tx.Runner
}

func New(
	jobs store.Store,
	clauses Clauses,
	an *analyzer.Analyzer,
	resultCache cache.Cache,
	ledger Ledger,
	documents Documents,
	tenants TenantGate,
	auditor *audit.Publisher,
	metrics *analysismetrics.Metrics,
	logger *slog.Logger,
	runner tx.Runner,
) *Service {
	return &Service{
		jobs:      jobs,
		clauses:   clauses,
		analyzer:  an,
		cache:     resultCache,
		ledger:    ledger,
		documents: documents,
		tenants:   tenants,
		auditor:   auditor,
		metrics:   metrics,
		logger:    logger,
		runner:    runner,
	}
}

// Request queues one analysis job per clause of the document's current
// version, replacing any earlier jobs for that version. Returns the number
// of jobs queued.
func (s *Service) Request(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (int, error) {
	if err := s.tenants.RequireActive(ctx, tenantID); err != nil {
		return 0, err
	}
	if err := s.documents.RequireOwned(ctx, tenantID, documentID); err != nil {
		return 0, err
	}

	latest, err := s.ledger.Latest(ctx, documentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return 0, dErrors.New(dErrors.CodeNotFound, "document has no versions")
	}
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest version")
	}

	clauses, err := s.clauses.ListByVersion(ctx, latest.ID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clauses")
	}
	if len(clauses) == 0 {
		return 0, dErrors.New(dErrors.CodeConflict, "document has no clauses; segment it first")
	}

	now := requestcontext.Now(ctx)
	jobs := make([]*models.Job, 0, len(clauses))
	for _, clause := range clauses {
		jobs = append(jobs, models.NewJob(tenantID, documentID, latest.ID, clause.ID, now))
	}
	err = tx.Run(ctx, s.runner, func(ctx context.Context) error {
		if err := s.jobs.ReplaceForVersion(ctx, latest.ID, jobs); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to queue analysis")
		}
		return s.auditor.Emit(ctx, audit.Event{
			TenantID: tenantID,
			Action:   audit.ActionDocumentAnalysisRequested,
			Subject:  documentID.String(),
			Detail:   fmt.Sprintf("%d clauses queued for version %d", len(jobs), latest.Number),
		})
	})
	if err != nil {
		return 0, err
	}
	s.metrics.IncrementJobsQueued(len(jobs))
	return len(jobs), nil
}

// Results returns the job list for the document's current version,
// including per-clause results and failures.
func (s *Service) Results(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) ([]*models.Job, error) {
	if err := s.documents.RequireOwned(ctx, tenantID, documentID); err != nil {
		return nil, err
	}
	latest, err := s.ledger.Latest(ctx, documentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "document has no versions")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest version")
	}
	jobs, err := s.jobs.ListByVersion(ctx, latest.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list analysis jobs")
	}
	return jobs, nil
}

// RunWorkers drains the queue with n workers until ctx is cancelled.
func (s *Service) RunWorkers(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	group, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		group.Go(func() error {
			return s.workerLoop(ctx)
		})
	}
	return group.Wait()
}

func (s *Service) workerLoop(ctx context.Context) error {
	for {
		claimed, err := s.jobs.ClaimPending(ctx, 1)
		if err != nil {
			s.logger.ErrorContext(ctx, "claiming analysis jobs failed", "error", err.Error())
		}
		if len(claimed) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollInterval):
			}
			continue
		}
		for _, job := range claimed {
			s.processJob(ctx, job)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// ProcessPending drains up to limit jobs synchronously. Tests and CLI
// tooling use it instead of the polling loop.
func (s *Service) ProcessPending(ctx context.Context, limit int) (int, error) {
	claimed, err := s.jobs.ClaimPending(ctx, limit)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to claim analysis jobs")
	}
	for _, job := range claimed {
		s.processJob(ctx, job)
	}
	return len(claimed), nil
}

func (s *Service) processJob(ctx context.Context, job *models.Job) {
	clause, err := s.clauses.FindByID(ctx, job.ClauseID)
	if err != nil {
		s.failJob(ctx, job, fmt.Errorf("load clause: %w", err))
		return
	}

	contentKey := cache.ContentKey(clause.Text)
	if cached, err := s.cache.Get(ctx, contentKey); err != nil {
		s.logger.WarnContext(ctx, "analysis cache read failed", "error", err.Error())
	} else if cached != nil {
		result := *cached
		result.ClauseID = job.ClauseID
		if err := s.jobs.Complete(ctx, job.ID, &result); err != nil {
			s.logger.ErrorContext(ctx, "completing cached analysis failed", "job_id", job.ID.String(), "error", err.Error())
			return
		}
		s.metrics.IncrementCacheHits()
		s.metrics.IncrementJobsProcessed("cached")
		return
	}

	result, err := s.analyzer.Analyze(ctx, clause.Text)
	if err != nil {
		s.failJob(ctx, job, err)
		return
	}
	result.ClauseID = job.ClauseID
	result.CreatedAt = time.Now().UTC()

	if err := s.cache.Put(ctx, contentKey, result); err != nil {
		s.logger.WarnContext(ctx, "analysis cache write failed", "error", err.Error())
	}
	if err := s.jobs.Complete(ctx, job.ID, result); err != nil {
		s.logger.ErrorContext(ctx, "completing analysis failed", "job_id", job.ID.String(), "error", err.Error())
		return
	}
	s.metrics.IncrementJobsProcessed("done")
}

func (s *Service) failJob(ctx context.Context, job *models.Job, cause error) {
	s.logger.WarnContext(ctx, "analysis job failed",
		"job_id", job.ID.String(),
		"clause_id", job.ClauseID.String(),
		"error", cause.Error(),
	)
	if err := s.jobs.Fail(ctx, job.ID, cause.Error()); err != nil {
		s.logger.ErrorContext(ctx, "marking analysis job failed errored", "job_id", job.ID.String(), "error", err.Error())
	}
	s.metrics.IncrementJobsProcessed("failed")
}
