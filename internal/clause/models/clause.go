// Package models defines clauses, the semantic units a contract is
// segmented into.
package models

import (
	"time"

	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
)

// Clause is one contiguous span of a version's text. Offsets are byte
// positions into the exact ledger content the clause was segmented from;
// Text is denormalized for convenience and always equals content[Start:End].
type Clause struct {
	ID         id.ClauseID   `json:"id"`
	DocumentID id.DocumentID `json:"document_id"`
	VersionID  id.VersionID  `json:"version_id"`
	Index      int           `json:"index"`
	Heading    string        `json:"heading,omitempty"`
	Start      int           `json:"start"`
	End        int           `json:"end"`
	Text       string        `json:"text"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Span is a segmentation result before it becomes a stored clause.
type Span struct {
	Heading string `json:"heading"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// ValidateSpans checks a segmentation against the text it claims to cover:
// offsets in range, strictly ascending, non-overlapping.
func ValidateSpans(text string, spans []Span) error {
	if len(spans) == 0 {
		return dErrors.New(dErrors.CodeUnprocessable, "segmentation produced no clauses")
	}
	prevEnd := 0
	for i, span := range spans {
		if span.Start < 0 || span.End > len(text) {
			return dErrors.Newf(dErrors.CodeUnprocessable, "clause %d offsets out of range", i)
		}
		if span.Start >= span.End {
			return dErrors.Newf(dErrors.CodeUnprocessable, "clause %d is empty or inverted", i)
		}
		if span.Start < prevEnd {
			return dErrors.Newf(dErrors.CodeUnprocessable, "clause %d overlaps its predecessor", i)
		}
		prevEnd = span.End
	}
	return nil
}

// FromSpans materializes clauses for a version from validated spans.
func FromSpans(documentID id.DocumentID, versionID id.VersionID, text string, spans []Span, now time.Time) []*Clause {
	clauses := make([]*Clause, 0, len(spans))
	for i, span := range spans {
		clauses = append(clauses, &Clause{
			ID:         id.NewClauseID(),
			DocumentID: documentID,
			VersionID:  versionID,
			Index:      i,
			Heading:    span.Heading,
			Start:      span.Start,
			End:        span.End,
			Text:       text[span.Start:span.End],
			CreatedAt:  now,
		})
	}
	return clauses
}
