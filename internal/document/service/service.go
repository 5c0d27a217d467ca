// Package service orchestrates document lifecycle: upload and extraction,
// reads, workflow transitions, and deletion. Every operation is scoped to
// the caller's tenant and blocked while the tenant is suspended.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lexdraft/internal/audit"
	"lexdraft/internal/document/extract"
	docmetrics "lexdraft/internal/document/metrics"
	"lexdraft/internal/document/models"
	"lexdraft/internal/document/store"
	"lexdraft/internal/platform/blob"
	"lexdraft/internal/search"
	versionmodels "lexdraft/internal/version/models"
	versionservice "lexdraft/internal/version/service"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/sentinel"
	"lexdraft/pkg/platform/tx"
	"lexdraft/pkg/requestcontext"
)

// TenantGate blocks operations for suspended tenants.
type TenantGate interface {
	RequireActive(ctx context.Context, tenantID id.TenantID) error
}

// Service orchestrates document operations.
type Service struct {
	documents store.Store
	ledger    *versionservice.Ledger
	blobs     blob.Store
	extractor *extract.Extractor
	index     search.Index
	tenants   TenantGate
	auditor   *audit.Publisher
	metrics   *docmetrics.Metrics
	logger    *slog.Logger
	runner    tx.Runner
}

func New(documents store.Store, ledger *versionservice.Ledger, blobs blob.Store, extractor *extract.Extractor, index search.Index, tenants TenantGate, auditor *audit.Publisher, metrics *docmetrics.Metrics, logger *slog.Logger, runner tx.Runner) *Service {
	return &Service{
		documents: documents,
		ledger:    ledger,
		blobs:     blobs,
		extractor: extractor,
		index:     index,
		tenants:   tenants,
		auditor:   auditor,
		metrics:   metrics,
		logger:    logger,
		runner:    runner,
	}
}

// Upload stores the file, extracts its text, and creates the document with
// ledger version 1. Extraction failure fails the whole upload; a document
// never exists without readable content.
func (s *Service) Upload(ctx context.Context, tenantID id.TenantID, title, filename, contentType string, data []byte) (*models.Document, error) {
	if err := s.tenants.RequireActive(ctx, tenantID); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "file is empty")
	}

	extractStart := time.Now()
	extracted, err := s.extractor.Extract(ctx, data, contentType)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveExtraction(time.Since(extractStart).Seconds())

	now := requestcontext.Now(ctx)
	userID := requestcontext.UserID(ctx)
	document, err := models.NewDocument(id.NewDocumentID(), tenantID, userID, title, filename, contentType, int64(len(data)), extracted.PageCount, now)
	if err != nil {
		return nil, err
	}
	document.BlobKey = blobKey(tenantID, document.ID)

	if err := s.blobs.Put(ctx, document.BlobKey, data, contentType); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store file")
	}

	version, err := versionmodels.NewVersion(document.ID, userID, extracted.Text, "initial upload", versionmodels.SourceUpload, now)
	if err != nil {
		return nil, err
	}

	// Document row, ledger entry, and audit events commit together; a
	// failure leaves only the orphaned blob behind.
	err = tx.Run(ctx, s.runner, func(ctx context.Context) error {
		if err := s.documents.Create(ctx, document); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create document")
		}
		if err := s.ledger.AppendEntry(ctx, version); err != nil {
			return err
		}
		return s.auditor.Emit(ctx, audit.Event{
			TenantID: tenantID,
			Action:   audit.ActionDocumentUploaded,
			Subject:  document.ID.String(),
			Detail:   document.Title,
		})
	})
	if err != nil {
		return nil, err
	}
	document.CurrentVersion = version.Number

	if err := s.index.Upsert(ctx, search.Record{
		DocumentID: document.ID,
		TenantID:   tenantID,
		Title:      document.Title,
		Body:       extracted.Text,
	}); err != nil {
		s.logger.WarnContext(ctx, "search indexing failed",
			"document_id", document.ID,
			"error", err,
		)
	}

	s.metrics.IncrementDocumentsUploaded()
	return document, nil
}

// Get returns a document with its current version number filled in.
func (s *Service) Get(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error) {
	document, err := s.find(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	latest, err := s.ledger.Latest(ctx, documentID)
	if err == nil {
		document.CurrentVersion = latest.Number
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest version")
	}
	return document, nil
}

// List returns the tenant's documents, optionally filtered by workflow
// state.
func (s *Service) List(ctx context.Context, tenantID id.TenantID, status *models.Status) ([]*models.Document, error) {
	if status != nil && !status.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown workflow state")
	}
	documents, err := s.documents.ListByTenant(ctx, tenantID, store.Filter{Status: status})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return documents, nil
}

// UpdateTitle renames a document and refreshes the search index.
func (s *Service) UpdateTitle(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID, title string) (*models.Document, error) {
	if err := s.tenants.RequireActive(ctx, tenantID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	document, err := s.executeOwned(ctx, tenantID, documentID,
		func(d *models.Document) error {
			return d.Rename(title, now)
		},
		func(*models.Document) {},
	)
	if err != nil {
		return nil, err
	}

	if err := s.Reindex(ctx, documentID); err != nil {
		s.logger.WarnContext(ctx, "search indexing failed",
			"document_id", documentID,
			"error", err,
		)
	}
	return document, nil
}

// Delete removes a draft document, its blob, and its index entry.
func (s *Service) Delete(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) error {
	if err := s.tenants.RequireActive(ctx, tenantID); err != nil {
		return err
	}

	document, err := s.find(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	if err := document.CanDelete(); err != nil {
		return err
	}

	err = tx.Run(ctx, s.runner, func(ctx context.Context) error {
		if err := s.documents.Delete(ctx, documentID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "document not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete document")
		}
		return s.auditor.Emit(ctx, audit.Event{
			TenantID: tenantID,
			Action:   audit.ActionDocumentDeleted,
			Subject:  documentID.String(),
			Detail:   document.Title,
		})
	})
	if err != nil {
		return err
	}
	if err := s.blobs.Remove(ctx, document.BlobKey); err != nil {
		s.logger.WarnContext(ctx, "blob removal failed",
			"document_id", documentID,
			"error", err,
		)
	}
	if err := s.index.Delete(ctx, documentID); err != nil {
		s.logger.WarnContext(ctx, "search deletion failed",
			"document_id", documentID,
			"error", err,
		)
	}
	return nil
}

// DownloadOriginal returns the originally uploaded bytes.
func (s *Service) DownloadOriginal(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, []byte, error) {
	document, err := s.find(ctx, tenantID, documentID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.Get(ctx, document.BlobKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "original file not found")
	}
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load original file")
	}
	return document, data, nil
}

// RequireOwned fails with not_found unless the document belongs to the
// tenant, hiding other tenants' documents entirely.
func (s *Service) RequireOwned(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) error {
	_, err := s.find(ctx, tenantID, documentID)
	return err
}

// RequireEditable fails unless the tenant is active and the workflow state
// still allows content changes.
func (s *Service) RequireEditable(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) error {
	if err := s.tenants.RequireActive(ctx, tenantID); err != nil {
		return err
	}
	document, err := s.find(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	if !document.Status.Editable() {
		return dErrors.Newf(dErrors.CodeConflict, "document in %s state cannot be edited", document.Status)
	}
	return nil
}

// Reindex refreshes the search index from the latest ledger entry.
func (s *Service) Reindex(ctx context.Context, documentID id.DocumentID) error {
	document, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document for indexing")
	}
	latest, err := s.ledger.Latest(ctx, documentID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest version for indexing")
	}
	return s.index.Upsert(ctx, search.Record{
		DocumentID: document.ID,
		TenantID:   document.TenantID,
		Title:      document.Title,
		Body:       latest.Content,
	})
}

func blobKey(tenantID id.TenantID, documentID id.DocumentID) string {
	return fmt.Sprintf("tenants/%s/documents/%s/original", tenantID, documentID)
}

// find loads a document scoped to the tenant. Wrong-tenant access reads as
// not found.
func (s *Service) find(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error) {
	document, err := s.documents.FindByID(ctx, documentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	if document.TenantID != tenantID {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return document, nil
}

// executeOwned runs the store's Execute with a tenant ownership check
// prepended to the caller's validation.
func (s *Service) executeOwned(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID, validate func(*models.Document) error, mutate func(*models.Document)) (*models.Document, error) {
	document, err := s.documents.Execute(ctx, documentID,
		func(d *models.Document) error {
			if d.TenantID != tenantID {
				return dErrors.New(dErrors.CodeNotFound, "document not found")
			}
			return validate(d)
		},
		mutate,
	)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	if err != nil && dErrors.CodeOf(err) == dErrors.CodeInternal {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "document store failure")
	}
	return document, err
}
