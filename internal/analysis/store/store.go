// Package store persists analysis jobs and results.
package store

import (
	"context"

	"lexdraft/internal/analysis/models"
	id "lexdraft/pkg/domain"
)

// Store is the persistence port for the analysis queue.
type Store interface {
	// ReplaceForVersion swaps the version's job set. Re-requesting an
	// analysis restarts it cleanly instead of stacking duplicate jobs.
	ReplaceForVersion(ctx context.Context, versionID id.VersionID, jobs []*models.Job) error
	// ClaimPending transitions up to limit pending jobs to running and
	// returns them. Concurrent workers never claim the same job twice.
	ClaimPending(ctx context.Context, limit int) ([]*models.Job, error)
	// Complete marks the job done and records its result.
	Complete(ctx context.Context, jobID id.AnalysisID, result *models.Result) error
	// Fail marks the job failed and keeps the error string.
	Fail(ctx context.Context, jobID id.AnalysisID, errMsg string) error
	// ListByVersion returns the version's jobs in clause order.
	ListByVersion(ctx context.Context, versionID id.VersionID) ([]*models.Job, error)
}
