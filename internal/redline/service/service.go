// Package service orchestrates redline review: create, decide, apply,
// discard.
package service

import (
	"context"
	"errors"
	"fmt"

	"lexdraft/internal/audit"
	clausemodels "lexdraft/internal/clause/models"
	redlinemetrics "lexdraft/internal/redline/metrics"
	"lexdraft/internal/redline/models"
	"lexdraft/internal/redline/store"
	versionmodels "lexdraft/internal/version/models"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/sentinel"
	"lexdraft/pkg/platform/tx"
	"lexdraft/pkg/requestcontext"
)

// Documents is the slice of the document service this package needs.
type Documents interface {
	RequireEditable(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) error
	RequireOwned(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) error
	Reindex(ctx context.Context, documentID id.DocumentID) error
}

// Ledger is the version ledger surface used by redlines: the base text on
// create, staleness checks and the append on apply.
type Ledger interface {
	AppendEntry(ctx context.Context, version *versionmodels.Version) error
	Latest(ctx context.Context, documentID id.DocumentID) (*versionmodels.Version, error)
}

// Clauses resolves clause-scoped redlines to their text and offsets.
type Clauses interface {
	FindByID(ctx context.Context, clauseID id.ClauseID) (*clausemodels.Clause, error)
}

// Service orchestrates the redline lifecycle.
type Service struct {
	redlines  store.Store
	ledger    Ledger
	clauses   Clauses
	documents Documents
	auditor   *audit.Publisher
	metrics   *redlinemetrics.Metrics
	runner    tx.Runner
}

func New(redlines store.Store, ledger Ledger, clauses Clauses, documents Documents, auditor *audit.Publisher, metrics *redlinemetrics.Metrics, runner tx.Runner) *Service {
	return &Service{
		redlines:  redlines,
		ledger:    ledger,
		clauses:   clauses,
		documents: documents,
		auditor:   auditor,
		metrics:   metrics,
		runner:    runner,
	}
}

// Create opens a redline proposing new text against the document's current
// version. With a clause ID the proposal targets that clause only; without
// one it replaces the whole document body.
func (s *Service) Create(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID, clauseID *id.ClauseID, proposed string) (*models.Redline, error) {
	if err := s.documents.RequireEditable(ctx, tenantID, documentID); err != nil {
		return nil, err
	}

	latest, err := s.latest(ctx, documentID)
	if err != nil {
		return nil, err
	}

	original := latest.Content
	if clauseID != nil {
		clause, err := s.currentClause(ctx, documentID, latest, *clauseID)
		if err != nil {
			return nil, err
		}
		original = clause.Text
	}

	redline, err := models.NewRedline(documentID, latest.ID, clauseID, requestcontext.UserID(ctx), original, proposed, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = tx.Run(ctx, s.runner, func(ctx context.Context) error {
		if err := s.redlines.Create(ctx, redline); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store redline")
		}
		return s.auditor.Emit(ctx, audit.Event{
			TenantID: tenantID,
			Action:   audit.ActionRedlineCreated,
			Subject:  redline.ID.String(),
			Detail:   fmt.Sprintf("%d hunks against version %d", len(redline.Hunks), latest.Number),
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementRedlinesCreated()
	return redline, nil
}

// Get returns one redline, scoped to the tenant through its document.
func (s *Service) Get(ctx context.Context, tenantID id.TenantID, redlineID id.RedlineID) (*models.Redline, error) {
	return s.find(ctx, tenantID, redlineID)
}

// List returns a document's redlines, newest first.
func (s *Service) List(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) ([]*models.Redline, error) {
	if err := s.documents.RequireOwned(ctx, tenantID, documentID); err != nil {
		return nil, err
	}
	redlines, err := s.redlines.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list redlines")
	}
	return redlines, nil
}

// Decide records an accept or reject verdict on one hunk. Verdicts may be
// revised while the redline stays open.
func (s *Service) Decide(ctx context.Context, tenantID id.TenantID, redlineID id.RedlineID, hunkIndex int, decision models.Decision) (*models.Redline, error) {
	if _, err := s.find(ctx, tenantID, redlineID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var updated *models.Redline
	err := tx.Run(ctx, s.runner, func(ctx context.Context) error {
		var err error
		updated, err = s.redlines.Execute(ctx, redlineID,
			func(r *models.Redline) error { return r.CanDecide(hunkIndex, decision) },
			func(r *models.Redline) { r.Decide(hunkIndex, decision, now) },
		)
		if err != nil {
			return wrapRedlineErr(err)
		}
		return s.auditor.Emit(ctx, audit.Event{
			TenantID: tenantID,
			Action:   audit.ActionRedlineDecided,
			Subject:  redlineID.String(),
			Detail:   fmt.Sprintf("hunk %d %s", hunkIndex, decision),
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementHunkDecisions(string(decision))
	return updated, nil
}

// Apply merges the decided hunks into a new ledger entry and closes the
// redline. Every hunk must be decided, and the base version must still be
// current; a redline overtaken by newer content conflicts instead of
// silently clobbering it.
func (s *Service) Apply(ctx context.Context, tenantID id.TenantID, redlineID id.RedlineID) (*versionmodels.Version, error) {
	redline, err := s.find(ctx, tenantID, redlineID)
	if err != nil {
		return nil, err
	}
	if err := s.documents.RequireEditable(ctx, tenantID, redline.DocumentID); err != nil {
		return nil, err
	}

	latest, err := s.latest(ctx, redline.DocumentID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var version *versionmodels.Version
	err = tx.Run(ctx, s.runner, func(ctx context.Context) error {
		var content string
		_, err := s.redlines.Execute(ctx, redlineID,
			func(r *models.Redline) error {
				if r.Status != models.StatusOpen {
					return dErrors.Newf(dErrors.CodeConflict, "redline is %s", r.Status)
				}
				if r.BaseVersionID != latest.ID {
					return dErrors.New(dErrors.CodeConflict, "base version is no longer current")
				}
				merged, err := r.Merged()
				if err != nil {
					return err
				}
				content = merged
				if r.ClauseID != nil {
					clause, err := s.currentClause(ctx, r.DocumentID, latest, *r.ClauseID)
					if err != nil {
						return err
					}
					content = latest.Content[:clause.Start] + merged + latest.Content[clause.End:]
				}
				return nil
			},
			func(r *models.Redline) {
				r.Status = models.StatusApplied
				r.UpdatedAt = now
			},
		)
		if err != nil {
			return wrapRedlineErr(err)
		}

		version, err = versionmodels.NewVersion(redline.DocumentID, requestcontext.UserID(ctx), content, "applied redline "+redline.ID.String(), versionmodels.SourceRedline, now)
		if err != nil {
			return err
		}
		if err := s.ledger.AppendEntry(ctx, version); err != nil {
			return err
		}
		return s.auditor.Emit(ctx, audit.Event{
			TenantID: tenantID,
			Action:   audit.ActionRedlineApplied,
			Subject:  redline.ID.String(),
			Detail:   fmt.Sprintf("version %d", version.Number),
		})
	})
	if err != nil {
		return nil, err
	}
	if err := s.documents.Reindex(ctx, redline.DocumentID); err != nil {
		return nil, err
	}

	s.metrics.IncrementRedlinesResolved("applied")
	return version, nil
}

// Discard closes an open redline without applying it.
func (s *Service) Discard(ctx context.Context, tenantID id.TenantID, redlineID id.RedlineID) error {
	if _, err := s.find(ctx, tenantID, redlineID); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	err := tx.Run(ctx, s.runner, func(ctx context.Context) error {
		_, err := s.redlines.Execute(ctx, redlineID,
			func(r *models.Redline) error {
				if r.Status != models.StatusOpen {
					return dErrors.Newf(dErrors.CodeConflict, "redline is %s", r.Status)
				}
				return nil
			},
			func(r *models.Redline) {
				r.Status = models.StatusDiscarded
				r.UpdatedAt = now
			},
		)
		if err != nil {
			return wrapRedlineErr(err)
		}
		return s.auditor.Emit(ctx, audit.Event{
			TenantID: tenantID,
			Action:   audit.ActionRedlineDiscarded,
			Subject:  redlineID.String(),
		})
	})
	if err != nil {
		return err
	}
	s.metrics.IncrementRedlinesResolved("discarded")
	return nil
}

func (s *Service) find(ctx context.Context, tenantID id.TenantID, redlineID id.RedlineID) (*models.Redline, error) {
	redline, err := s.redlines.FindByID(ctx, redlineID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "redline not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load redline")
	}
	if err := s.documents.RequireOwned(ctx, tenantID, redline.DocumentID); err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "redline not found")
	}
	return redline, nil
}

func (s *Service) latest(ctx context.Context, documentID id.DocumentID) (*versionmodels.Version, error) {
	latest, err := s.ledger.Latest(ctx, documentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "document has no versions")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest version")
	}
	return latest, nil
}

// currentClause loads a clause and checks it belongs to the document's
// current version, so stale clause IDs fail loudly.
func (s *Service) currentClause(ctx context.Context, documentID id.DocumentID, latest *versionmodels.Version, clauseID id.ClauseID) (*clausemodels.Clause, error) {
	clause, err := s.clauses.FindByID(ctx, clauseID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "clause not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load clause")
	}
	if clause.DocumentID != documentID {
		return nil, dErrors.New(dErrors.CodeNotFound, "clause not found")
	}
	if clause.VersionID != latest.ID {
		return nil, dErrors.New(dErrors.CodeConflict, "clause belongs to an older version")
	}
	return clause, nil
}

func wrapRedlineErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "redline not found")
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update redline")
}
