package export

import (
	"context"
	"fmt"

	"lexdraft/internal/audit"
	docmodels "lexdraft/internal/document/models"
	"lexdraft/internal/redline/engine"
	redlinemodels "lexdraft/internal/redline/models"
	versionmodels "lexdraft/internal/version/models"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/requestcontext"
)

// Documents is the slice of the document service this package needs.
type Documents interface {
	Get(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*docmodels.Document, error)
}

// Redlines is the slice of the redline service this package needs.
type Redlines interface {
	Get(ctx context.Context, tenantID id.TenantID, redlineID id.RedlineID) (*redlinemodels.Redline, error)
}

// Versions is the slice of the version service this package needs.
type Versions interface {
	Get(ctx context.Context, tenantID id.TenantID, versionID id.VersionID) (*versionmodels.Version, error)
	Diff(ctx context.Context, tenantID id.TenantID, fromID, toID id.VersionID) ([]engine.Segment, error)
}

// Service renders redlines and version diffs for download.
type Service struct {
	documents Documents
	redlines  Redlines
	versions  Versions
	auditor   *audit.Publisher
}

func New(documents Documents, redlines Redlines, versions Versions, auditor *audit.Publisher) *Service {
	return &Service{
		documents: documents,
		redlines:  redlines,
		versions:  versions,
		auditor:   auditor,
	}
}

// ExportRedline renders a redline's proposed changes against its base.
func (s *Service) ExportRedline(ctx context.Context, tenantID id.TenantID, redlineID id.RedlineID, format Format) (*Result, error) {
	redline, err := s.redlines.Get(ctx, tenantID, redlineID)
	if err != nil {
		return nil, err
	}
	document, err := s.documents.Get(ctx, tenantID, redline.DocumentID)
	if err != nil {
		return nil, err
	}

	subtitle := fmt.Sprintf("redline %s (%s)", redline.ID, redline.Status)
	result, err := s.render(ctx, format, document.Title, subtitle, redline.Segments)
	if err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		TenantID: tenantID,
		Action:   audit.ActionExportRendered,
		Subject:  document.ID.String(),
		Detail:   fmt.Sprintf("redline %s as %s", redline.ID, format),
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// ExportDiff renders the changes between two ledger entries of the same
// document, older side first.
func (s *Service) ExportDiff(ctx context.Context, tenantID id.TenantID, fromID, toID id.VersionID, format Format) (*Result, error) {
	segments, err := s.versions.Diff(ctx, tenantID, fromID, toID)
	if err != nil {
		return nil, err
	}
	from, err := s.versions.Get(ctx, tenantID, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.versions.Get(ctx, tenantID, toID)
	if err != nil {
		return nil, err
	}
	document, err := s.documents.Get(ctx, tenantID, to.DocumentID)
	if err != nil {
		return nil, err
	}

	subtitle := fmt.Sprintf("version %d to version %d", from.Number, to.Number)
	result, err := s.render(ctx, format, document.Title, subtitle, segments)
	if err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		TenantID: tenantID,
		Action:   audit.ActionExportRendered,
		Subject:  document.ID.String(),
		Detail:   fmt.Sprintf("%s as %s", subtitle, format),
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) render(ctx context.Context, format Format, title, subtitle string, segments []engine.Segment) (*Result, error) {
	html, err := renderHTML(title, subtitle, segments, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render export")
	}

	stem := sanitizeFilename(title)
	switch format {
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: stem + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		data, err := renderPDF(ctx, html)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render pdf")
		}
		return &Result{
			Data:     data,
			Filename: stem + ".pdf",
			MimeType: "application/pdf",
		}, nil
	case FormatDOCX:
		data, err := renderDOCX(ctx, html)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render docx")
		}
		return &Result{
			Data:     data,
			Filename: stem + ".docx",
			MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		}, nil
	}
	return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown export format %q", format)
}
