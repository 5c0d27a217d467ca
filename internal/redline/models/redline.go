// Package models defines redlines: proposed edits reviewed hunk by hunk.
package models

import (
	"time"

	"lexdraft/internal/redline/engine"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
)

// Status tracks a redline through review.
type Status string

const (
	StatusOpen      Status = "open"
	StatusApplied   Status = "applied"
	StatusDiscarded Status = "discarded"
)

// Decision is a reviewer's verdict on one hunk.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// Hunk is one reviewable change with its decision. Decisions may be
// revised while the redline is open.
type Hunk struct {
	engine.Hunk
	Decision Decision `json:"decision"`
}

// Redline is a proposed edit against a specific ledger entry. ClauseID is
// set when the proposal targets one clause; document-wide proposals leave
// it nil. Segments and hunks are frozen at creation; only decisions and
// status change afterwards.
type Redline struct {
	ID            id.RedlineID     `json:"id"`
	DocumentID    id.DocumentID    `json:"document_id"`
	BaseVersionID id.VersionID     `json:"base_version_id"`
	ClauseID      *id.ClauseID     `json:"clause_id,omitempty"`
	Proposed      string           `json:"proposed"`
	Segments      []engine.Segment `json:"segments"`
	Hunks         []Hunk           `json:"hunks"`
	Status        Status           `json:"status"`
	AuthorID      id.UserID        `json:"author_id"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewRedline diffs the proposal against the base text and freezes the
// result. A proposal that changes nothing is rejected up front.
func NewRedline(documentID id.DocumentID, baseVersionID id.VersionID, clauseID *id.ClauseID, authorID id.UserID, original, proposed string, now time.Time) (*Redline, error) {
	segments := engine.Diff(original, proposed)
	engineHunks := engine.BuildHunks(segments)
	if len(engineHunks) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "proposed text matches the current text")
	}

	hunks := make([]Hunk, 0, len(engineHunks))
	for _, h := range engineHunks {
		hunks = append(hunks, Hunk{Hunk: h, Decision: DecisionPending})
	}
	return &Redline{
		ID:            id.NewRedlineID(),
		DocumentID:    documentID,
		BaseVersionID: baseVersionID,
		ClauseID:      clauseID,
		Proposed:      proposed,
		Segments:      segments,
		Hunks:         hunks,
		Status:        StatusOpen,
		AuthorID:      authorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CanDecide checks that a verdict on the hunk is currently allowed.
func (r *Redline) CanDecide(hunkIndex int, decision Decision) error {
	if r.Status != StatusOpen {
		return dErrors.Newf(dErrors.CodeConflict, "redline is %s", r.Status)
	}
	if hunkIndex < 0 || hunkIndex >= len(r.Hunks) {
		return dErrors.Newf(dErrors.CodeBadRequest, "hunk %d does not exist", hunkIndex)
	}
	if decision != DecisionAccepted && decision != DecisionRejected {
		return dErrors.New(dErrors.CodeInvalidInput, "decision must be accepted or rejected")
	}
	return nil
}

// Decide records a verdict the caller has already validated with CanDecide.
func (r *Redline) Decide(hunkIndex int, decision Decision, now time.Time) {
	r.Hunks[hunkIndex].Decision = decision
	r.UpdatedAt = now
}

// Undecided returns the indexes of hunks still pending.
func (r *Redline) Undecided() []int {
	var pending []int
	for i, h := range r.Hunks {
		if h.Decision == DecisionPending {
			pending = append(pending, i)
		}
	}
	return pending
}

// Merged produces the final text from the decided hunks. All hunks must
// be decided.
func (r *Redline) Merged() (string, error) {
	if pending := r.Undecided(); len(pending) > 0 {
		return "", dErrors.Newf(dErrors.CodeConflict, "%d hunks still undecided", len(pending))
	}
	return engine.Merge(r.Segments, func(hunk int) bool {
		return r.Hunks[hunk].Decision == DecisionAccepted
	}), nil
}
