// Package models defines the append-only version ledger entry.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
)

// Source records what produced a ledger entry.
type Source string

const (
	// SourceUpload is the extracted text of an uploaded file.
	SourceUpload Source = "upload"
	// SourceRedline is the merge result of an applied redline.
	SourceRedline Source = "redline"
	// SourceManual is a direct text replacement by a user.
	SourceManual Source = "manual"
)

func (s Source) Valid() bool {
	switch s {
	case SourceUpload, SourceRedline, SourceManual:
		return true
	}
	return false
}

// Version is one entry in a document's ledger. Entries are never updated or
// deleted; Number is strictly monotonic per document and assigned by the
// store at append time.
type Version struct {
	ID            id.VersionID  `json:"id"`
	DocumentID    id.DocumentID `json:"document_id"`
	Number        int           `json:"number"`
	AuthorID      id.UserID     `json:"author_id"`
	ChangeSummary string        `json:"change_summary"`
	Content       string        `json:"content"`
	ContentSHA256 string        `json:"content_sha256"`
	Source        Source        `json:"source"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewVersion validates and constructs a ledger entry with Number unset.
func NewVersion(documentID id.DocumentID, authorID id.UserID, content, changeSummary string, source Source, now time.Time) (*Version, error) {
	if strings.TrimSpace(content) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "version content must not be empty")
	}
	if !source.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown version source")
	}
	sum := sha256.Sum256([]byte(content))
	return &Version{
		ID:            id.NewVersionID(),
		DocumentID:    documentID,
		AuthorID:      authorID,
		ChangeSummary: strings.TrimSpace(changeSummary),
		Content:       content,
		ContentSHA256: hex.EncodeToString(sum[:]),
		Source:        source,
		CreatedAt:     now,
	}, nil
}
