// Package segmenter splits contract text into clauses. The LLM segmenter
// asks a model for character offsets and refuses anything that does not
// round-trip; the heuristic segmenter is a deterministic fallback for
// offline operation.
package segmenter

import (
	"context"
	"strings"

	"lexdraft/internal/clause/models"
)

// Segmenter produces clause spans over a version's text.
type Segmenter interface {
	Segment(ctx context.Context, text string) ([]models.Span, error)
}

// Heuristic segments on blank lines. Every non-blank block becomes a
// clause; a block's first line becomes the heading when it is short and
// ends without sentence punctuation.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) Segment(_ context.Context, text string) ([]models.Span, error) {
	var spans []models.Span
	offset := 0
	for offset < len(text) {
		// Skip blank region.
		for offset < len(text) && isBlankAt(text, offset) {
			offset++
		}
		if offset >= len(text) {
			break
		}
		start := offset
		end := strings.Index(text[start:], "\n\n")
		if end < 0 {
			end = len(text)
		} else {
			end += start
		}
		block := strings.TrimRight(text[start:end], " \t\n")
		spans = append(spans, models.Span{
			Heading: headingOf(block),
			Start:   start,
			End:     start + len(block),
		})
		offset = end
	}
	if err := models.ValidateSpans(text, spans); err != nil {
		return nil, err
	}
	return spans, nil
}

func isBlankAt(text string, i int) bool {
	switch text[i] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// headingOf guesses a heading from the block's first line.
func headingOf(block string) string {
	line, _, _ := strings.Cut(block, "\n")
	line = strings.TrimSpace(line)
	if line == block {
		return ""
	}
	if len(line) > 120 {
		return ""
	}
	if strings.HasSuffix(line, ".") || strings.HasSuffix(line, ",") || strings.HasSuffix(line, ";") {
		return ""
	}
	return line
}
