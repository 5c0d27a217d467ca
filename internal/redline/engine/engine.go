// Package engine computes word-level diffs between two texts. It is pure:
// no stores, no context, no side effects, which keeps the redline semantics
// testable as plain functions.
package engine

import (
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op classifies a diff segment.
type Op string

const (
	OpEqual  Op = "equal"
	OpInsert Op = "insert"
	OpDelete Op = "delete"
)

// Segment is a run of text sharing one op. Concatenating the equal and
// delete segments reproduces the original text; equal and insert reproduce
// the proposed text.
type Segment struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

// Diff computes word-level segments between original and proposed text.
// Tokens are words and whitespace runs, so whitespace survives the round
// trip exactly.
func Diff(original, proposed string) []Segment {
	if original == proposed {
		if original == "" {
			return nil
		}
		return []Segment{{Op: OpEqual, Text: original}}
	}

	enc := newTokenEncoder()
	encodedA := enc.encode(tokenize(original))
	encodedB := enc.encode(tokenize(proposed))

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(encodedA, encodedB, false)

	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		text := enc.decode(d.Text)
		if text == "" {
			continue
		}
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		}
		if n := len(segments); n > 0 && segments[n-1].Op == op {
			segments[n-1].Text += text
			continue
		}
		segments = append(segments, Segment{Op: op, Text: text})
	}
	return segments
}

// Original reassembles the original text from segments.
func Original(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Op != OpInsert {
			sb.WriteString(seg.Text)
		}
	}
	return sb.String()
}

// Proposed reassembles the proposed text from segments.
func Proposed(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Op != OpDelete {
			sb.WriteString(seg.Text)
		}
	}
	return sb.String()
}

// Hunk is a maximal run of non-equal segments, the unit a reviewer accepts
// or rejects. SegStart and SegEnd index into the segment slice,
// half-open.
type Hunk struct {
	SegStart int    `json:"seg_start"`
	SegEnd   int    `json:"seg_end"`
	Original string `json:"original"`
	Proposed string `json:"proposed"`
}

// BuildHunks groups adjacent insert/delete segments into hunks.
func BuildHunks(segments []Segment) []Hunk {
	var hunks []Hunk
	i := 0
	for i < len(segments) {
		if segments[i].Op == OpEqual {
			i++
			continue
		}
		start := i
		for i < len(segments) && segments[i].Op != OpEqual {
			i++
		}
		part := segments[start:i]
		hunks = append(hunks, Hunk{
			SegStart: start,
			SegEnd:   i,
			Original: Original(part),
			Proposed: Proposed(part),
		})
	}
	return hunks
}

// Merge produces the final text given a decision per hunk: accepted hunks
// take the proposed side, rejected hunks keep the original side. accepted
// is indexed by hunk position in BuildHunks order.
func Merge(segments []Segment, accepted func(hunk int) bool) string {
	hunks := BuildHunks(segments)
	var sb strings.Builder
	hunk := 0
	for i := 0; i < len(segments); {
		if segments[i].Op == OpEqual {
			sb.WriteString(segments[i].Text)
			i++
			continue
		}
		h := hunks[hunk]
		if accepted(hunk) {
			sb.WriteString(h.Proposed)
		} else {
			sb.WriteString(h.Original)
		}
		i = h.SegEnd
		hunk++
	}
	return sb.String()
}

// tokenize splits text into words and whitespace runs. Every byte of the
// input lands in exactly one token.
func tokenize(s string) []string {
	var tokens []string
	start := 0
	inSpace := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if i > 0 && space != inSpace {
			tokens = append(tokens, s[start:i])
			start = i
		}
		inSpace = space
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

// tokenEncoder maps tokens to single runes so diffmatchpatch compares whole
// tokens instead of characters. Rune values skip the surrogate range, which
// cannot appear in a Go string.
type tokenEncoder struct {
	index  map[string]rune
	tokens map[rune]string
	next   rune
}

func newTokenEncoder() *tokenEncoder {
	return &tokenEncoder{
		index:  make(map[string]rune),
		tokens: make(map[rune]string),
		next:   1,
	}
}

func (e *tokenEncoder) encode(tokens []string) string {
	var sb strings.Builder
	for _, tok := range tokens {
		r, ok := e.index[tok]
		if !ok {
			r = e.next
			e.next++
			if e.next == 0xD800 {
				e.next = 0xE000
			}
			e.index[tok] = r
			e.tokens[r] = tok
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (e *tokenEncoder) decode(encoded string) string {
	var sb strings.Builder
	for _, r := range encoded {
		sb.WriteString(e.tokens[r])
	}
	return sb.String()
}
