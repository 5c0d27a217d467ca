package engine

import (
	"strconv"
	"strings"
	"testing"
)

func TestDiffReconstructsBothSides(t *testing.T) {
	cases := []struct {
		name     string
		original string
		proposed string
	}{
		{"word swap", "the party shall pay", "the party must pay"},
		{"insertion", "payment due", "payment is due immediately"},
		{"deletion", "the aforementioned party hereby agrees", "the party agrees"},
		{"identical", "no changes here", "no changes here"},
		{"empty original", "", "brand new clause"},
		{"empty proposed", "clause removed entirely", ""},
		{"whitespace only change", "a  b", "a b"},
		{"newlines preserved", "line one\n\nline two", "line one\n\nline two amended"},
		{"unicode", "la fuerza mayor aplicará", "la fuerza mayor no aplicará"},
		{"tabs", "col1\tcol2", "col1\tcol3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			segments := Diff(tc.original, tc.proposed)
			if got := Original(segments); got != tc.original {
				t.Fatalf("original side = %q, want %q", got, tc.original)
			}
			if got := Proposed(segments); got != tc.proposed {
				t.Fatalf("proposed side = %q, want %q", got, tc.proposed)
			}
		})
	}
}

func TestDiffSegmentsAreWordAligned(t *testing.T) {
	segments := Diff("the quick brown fox", "the slow brown fox")
	for _, seg := range segments {
		if seg.Text == "" {
			t.Fatal("empty segment")
		}
	}
	// "quick" is replaced by "slow"; "brown fox" must stay equal, not be
	// split mid-word.
	var equals []string
	for _, seg := range segments {
		if seg.Op == OpEqual {
			equals = append(equals, seg.Text)
		}
	}
	joined := strings.Join(equals, "|")
	if !strings.Contains(joined, "brown fox") {
		t.Fatalf("expected shared suffix to survive as one equal run, got %q", joined)
	}
}

func TestMergeDecisions(t *testing.T) {
	original := "rent is 100 dollars payable monthly in arrears"
	proposed := "rent is 150 dollars payable quarterly in arrears"

	segments := Diff(original, proposed)
	hunks := BuildHunks(segments)
	if len(hunks) != 2 {
		t.Fatalf("expected 2 hunks, got %d: %+v", len(hunks), hunks)
	}

	acceptAll := Merge(segments, func(int) bool { return true })
	if acceptAll != proposed {
		t.Fatalf("accept all = %q, want %q", acceptAll, proposed)
	}

	rejectAll := Merge(segments, func(int) bool { return false })
	if rejectAll != original {
		t.Fatalf("reject all = %q, want %q", rejectAll, original)
	}

	// Accept the amount change, reject the schedule change.
	mixed := Merge(segments, func(h int) bool { return h == 0 })
	want := "rent is 150 dollars payable monthly in arrears"
	if mixed != want {
		t.Fatalf("mixed merge = %q, want %q", mixed, want)
	}
}

func TestBuildHunksCoversAllEdits(t *testing.T) {
	segments := Diff("alpha beta gamma", "alpha delta gamma epsilon")
	hunks := BuildHunks(segments)
	if len(hunks) == 0 {
		t.Fatal("expected hunks")
	}
	for _, h := range hunks {
		if h.SegStart >= h.SegEnd {
			t.Fatalf("empty hunk range: %+v", h)
		}
		if h.Original == h.Proposed {
			t.Fatalf("hunk with no change: %+v", h)
		}
	}
}

func TestDiffEmptyBothSides(t *testing.T) {
	if segments := Diff("", ""); segments != nil {
		t.Fatalf("expected nil segments, got %+v", segments)
	}
}

func TestDiffManyDistinctTokens(t *testing.T) {
	// Enough distinct tokens to cross the surrogate gap in the encoder.
	var a, b strings.Builder
	for i := 0; i < 60000; i++ {
		a.WriteString("tok")
		a.WriteString(string(rune('a' + i%26)))
		a.WriteString(strconv.Itoa(i))
		a.WriteString(" ")
	}
	b.WriteString(a.String())
	b.WriteString("trailing addition")

	segments := Diff(a.String(), b.String())
	if got := Original(segments); got != a.String() {
		t.Fatal("original side mismatch on large input")
	}
	if got := Proposed(segments); got != b.String() {
		t.Fatal("proposed side mismatch on large input")
	}
}
