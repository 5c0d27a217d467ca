// Package service orchestrates clause segmentation.
package service

import (
	"context"
	"errors"
	"fmt"

	"lexdraft/internal/audit"
	"lexdraft/internal/clause/models"
	"lexdraft/internal/clause/segmenter"
	"lexdraft/internal/clause/store"
	versionmodels "lexdraft/internal/version/models"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/sentinel"
	"lexdraft/pkg/platform/tx"
	"lexdraft/pkg/requestcontext"
)

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

// Service orchestrates segmentation and clause reads.
type Service struct {
	clauses   store.Store
	segmenter segmenter.Segmenter
	ledger    Ledger
	documents Documents
	tenants   TenantGate
	auditor   *audit.Publisher
	runner    tx.Runner
}

func New(clauses store.Store, seg segmenter.Segmenter, ledger Ledger, documents Documents, tenants TenantGate, auditor *audit.Publisher, runner tx.Runner) *Service {
	return &Service{
		clauses:   clauses,
		segmenter: seg,
		ledger:    ledger,
		documents: documents,
		tenants:   tenants,
		auditor:   auditor,
		runner:    runner,
	}
}

// Segment splits the document's current version into clauses, replacing
// any previous segmentation of that version.
func (s *Service) Segment(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) ([]*models.Clause, error) {
	if err := s.tenants.RequireActive(ctx, tenantID); err != nil {
		return nil, err
	}
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

	spans, err := s.segmenter.Segment(ctx, latest.Content)
	if err != nil {
		return nil, err
	}

	clauses := models.FromSpans(documentID, latest.ID, latest.Content, spans, requestcontext.Now(ctx))
	err = tx.Run(ctx, s.runner, func(ctx context.Context) error {
		if err := s.clauses.ReplaceForVersion(ctx, latest.ID, clauses); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store clauses")
		}
		return s.auditor.Emit(ctx, audit.Event{
			TenantID: tenantID,
			Action:   audit.ActionDocumentClausesSegmented,
			Subject:  documentID.String(),
			Detail:   fmt.Sprintf("%d clauses in version %d", len(clauses), latest.Number),
		})
	})
	if err != nil {
		return nil, err
	}
	return clauses, nil
}

// List returns the clauses of the document's current version.
func (s *Service) List(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) ([]*models.Clause, error) {
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
	clauses, err := s.clauses.ListByVersion(ctx, latest.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clauses")
	}
	return clauses, nil
}

// Get returns one clause, scoped to the tenant through its document.
func (s *Service) Get(ctx context.Context, tenantID id.TenantID, clauseID id.ClauseID) (*models.Clause, error) {
	clause, err := s.clauses.FindByID(ctx, clauseID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "clause not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load clause")
	}
	if err := s.documents.RequireOwned(ctx, tenantID, clause.DocumentID); err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "clause not found")
	}
	return clause, nil
}
