// Package service exposes the version ledger: reads, diffs, and manual
// appends. Upload and redline apply append through AppendEntry so every
// content change lands in the ledger the same way.
package service

import (
	"context"
	"errors"

	"lexdraft/internal/audit"
	"lexdraft/internal/redline/engine"
	"lexdraft/internal/version/models"
	"lexdraft/internal/version/store"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/sentinel"
	"lexdraft/pkg/platform/tx"
	"lexdraft/pkg/requestcontext"
)

// Documents is the slice of the document service the ledger needs: tenant
// scoping and reindexing after content changes.
type Documents interface {
	// RequireEditable fails unless the document belongs to the tenant, the
	// tenant is active, and the workflow state still allows content changes.
	RequireEditable(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) error
	// RequireOwned fails unless the document belongs to the tenant.
	RequireOwned(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) error
	// Reindex refreshes the search index from the latest ledger entry.
	Reindex(ctx context.Context, documentID id.DocumentID) error
}

// Ledger is the write path into the version store. Document upload and
// redline apply share it with this service so every append emits the same
// audit event; it stands alone to keep construction acyclic.
type Ledger struct {
	versions store.Store
	auditor  *audit.Publisher
	runner   tx.Runner
}

func NewLedger(versions store.Store, auditor *audit.Publisher, runner tx.Runner) *Ledger {
	return &Ledger{versions: versions, auditor: auditor, runner: runner}
}

// AppendEntry appends a prepared entry and emits the audit event in one
// transaction. Callers have already authorized the change; callers holding
// their own transaction are joined rather than nested.
func (l *Ledger) AppendEntry(ctx context.Context, version *models.Version) error {
	return tx.Run(ctx, l.runner, func(ctx context.Context) error {
		if err := l.versions.Append(ctx, version); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append version")
		}
		return l.auditor.Emit(ctx, audit.Event{
			TenantID: requestcontext.TenantID(ctx),
			Action:   audit.ActionVersionAppended,
			Subject:  version.DocumentID.String(),
			Detail:   string(version.Source),
		})
	})
}

// Latest returns the current entry, or sentinel.ErrNotFound on an empty
// ledger.
func (l *Ledger) Latest(ctx context.Context, documentID id.DocumentID) (*models.Version, error) {
	return l.versions.FindLatest(ctx, documentID)
}

// Service orchestrates ledger access.
type Service struct {
	*Ledger
	documents Documents
}

func New(ledger *Ledger, documents Documents) *Service {
	return &Service{Ledger: ledger, documents: documents}
}

// AppendManual appends a direct text replacement as a new ledger entry.
func (s *Service) AppendManual(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID, content, changeSummary string) (*models.Version, error) {
	if err := s.documents.RequireEditable(ctx, tenantID, documentID); err != nil {
		return nil, err
	}

	version, err := models.NewVersion(documentID, requestcontext.UserID(ctx), content, changeSummary, models.SourceManual, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.AppendEntry(ctx, version); err != nil {
		return nil, err
	}
	if err := s.documents.Reindex(ctx, documentID); err != nil {
		return nil, err
	}
	return version, nil
}

// Get returns one ledger entry, scoped to the tenant through its document.
func (s *Service) Get(ctx context.Context, tenantID id.TenantID, versionID id.VersionID) (*models.Version, error) {
	version, err := s.versions.FindByID(ctx, versionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "version not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load version")
	}
	if err := s.documents.RequireOwned(ctx, tenantID, version.DocumentID); err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "version not found")
	}
	return version, nil
}

// GetLatest returns the current ledger entry for a document.
func (s *Service) GetLatest(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Version, error) {
	if err := s.documents.RequireOwned(ctx, tenantID, documentID); err != nil {
		return nil, err
	}
	version, err := s.versions.FindLatest(ctx, documentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "document has no versions")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest version")
	}
	return version, nil
}

// List returns a document's ledger, newest first.
func (s *Service) List(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) ([]*models.Version, error) {
	if err := s.documents.RequireOwned(ctx, tenantID, documentID); err != nil {
		return nil, err
	}
	versions, err := s.versions.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list versions")
	}
	return versions, nil
}

// Diff computes the word-level changes between two entries of the same
// document's ledger, older side first.
func (s *Service) Diff(ctx context.Context, tenantID id.TenantID, fromID, toID id.VersionID) ([]engine.Segment, error) {
	from, err := s.Get(ctx, tenantID, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.Get(ctx, tenantID, toID)
	if err != nil {
		return nil, err
	}
	if from.DocumentID != to.DocumentID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "versions belong to different documents")
	}
	return engine.Diff(from.Content, to.Content), nil
}
