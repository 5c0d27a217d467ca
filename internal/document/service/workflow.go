package service

import (
	"context"
	"fmt"

	"lexdraft/internal/audit"
	"lexdraft/internal/document/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/tx"
	"lexdraft/pkg/requestcontext"
)

// SubmitForReview moves a draft into review.
func (s *Service) SubmitForReview(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error) {
	return s.transition(ctx, tenantID, documentID, models.StatusReview)
}

// RequestChanges bounces a document under review back to draft.
func (s *Service) RequestChanges(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error) {
	return s.transition(ctx, tenantID, documentID, models.StatusDraft)
}

// Approve moves a reviewed document into approval.
func (s *Service) Approve(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error) {
	return s.transition(ctx, tenantID, documentID, models.StatusApproval)
}

// SendForSignature moves an approved document into signature.
func (s *Service) SendForSignature(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error) {
	return s.transition(ctx, tenantID, documentID, models.StatusSignature)
}

// Complete finishes the workflow after signature.
func (s *Service) Complete(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error) {
	return s.transition(ctx, tenantID, documentID, models.StatusCompleted)
}

func (s *Service) transition(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID, target models.Status) (*models.Document, error) {
	if err := s.tenants.RequireActive(ctx, tenantID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var (
		from     models.Status
		document *models.Document
	)
	err := tx.Run(ctx, s.runner, func(ctx context.Context) error {
		var err error
		document, err = s.executeOwned(ctx, tenantID, documentID,
			func(d *models.Document) error {
				from = d.Status
				return d.CanTransition(target)
			},
			func(d *models.Document) {
				d.ApplyTransition(target, now)
			},
		)
		if err != nil {
			return err
		}
		return s.auditor.Emit(ctx, audit.Event{
			TenantID: tenantID,
			Action:   audit.ActionDocumentWorkflowAdvanced,
			Subject:  documentID.String(),
			Detail:   fmt.Sprintf("%s->%s", from, target),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementWorkflowTransitions(string(target))
	return document, nil
}
