// Package models defines the document aggregate and its workflow state.
package models

import (
	"strings"
	"time"

	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
)

// Document is the per-tenant aggregate. Text content lives in the version
// ledger; the uploaded binary lives in blob storage under BlobKey.
type Document struct {
	ID               id.DocumentID `json:"id"`
	TenantID         id.TenantID   `json:"tenant_id"`
	Title            string        `json:"title"`
	OriginalFilename string        `json:"original_filename"`
	ContentType      string        `json:"content_type"`
	SizeBytes        int64         `json:"size_bytes"`
	PageCount        int           `json:"page_count"`
	Status           Status        `json:"status"`
	CreatedBy        id.UserID     `json:"created_by"`
	BlobKey          string        `json:"-"`
	CurrentVersion   int           `json:"current_version,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// NewDocument validates and constructs a document in draft state.
func NewDocument(documentID id.DocumentID, tenantID id.TenantID, createdBy id.UserID, title, filename, contentType string, sizeBytes int64, pageCount int, now time.Time) (*Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	if len(title) > 256 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "title must be at most 256 characters")
	}
	return &Document{
		ID:               documentID,
		TenantID:         tenantID,
		Title:            title,
		OriginalFilename: filename,
		ContentType:      contentType,
		SizeBytes:        sizeBytes,
		PageCount:        pageCount,
		Status:           StatusDraft,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// CanTransition checks a workflow move without applying it.
func (d *Document) CanTransition(target Status) error {
	if !target.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown workflow state")
	}
	if !d.Status.CanTransitionTo(target) {
		return dErrors.Newf(dErrors.CodeConflict, "cannot move document from %s to %s", d.Status, target)
	}
	return nil
}

// ApplyTransition moves the document to target. Callers validate with
// CanTransition first.
func (d *Document) ApplyTransition(target Status, now time.Time) {
	d.Status = target
	d.UpdatedAt = now
}

// CanDelete allows deletion only while the document is still a draft.
func (d *Document) CanDelete() error {
	if d.Status != StatusDraft {
		return dErrors.New(dErrors.CodeConflict, "only draft documents can be deleted")
	}
	return nil
}

// Rename updates the title with the same validation as construction.
func (d *Document) Rename(title string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	if len(title) > 256 {
		return dErrors.New(dErrors.CodeInvalidInput, "title must be at most 256 characters")
	}
	d.Title = title
	d.UpdatedAt = now
	return nil
}
