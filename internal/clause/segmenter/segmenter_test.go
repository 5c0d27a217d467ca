package segmenter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lexdraft/internal/llm/mocks"
	dErrors "lexdraft/pkg/domain-errors"
)

const sampleContract = `1. Term
This agreement runs for twelve months.

2. Termination
Either party may terminate with thirty days notice.

All notices go to the registered address.`

func TestHeuristicSegment(t *testing.T) {
	spans, err := NewHeuristic().Segment(context.Background(), sampleContract)
	require.NoError(t, err)
	require.Len(t, spans, 3)

	assert.Equal(t, "1. Term", spans[0].Heading)
	assert.Equal(t, "2. Termination", spans[1].Heading)
	// Single-line block has no separate heading.
	assert.Equal(t, "", spans[2].Heading)

	for i, span := range spans {
		got := sampleContract[span.Start:span.End]
		if got == "" {
			t.Fatalf("clause %d is empty", i)
		}
	}
	assert.Equal(t, "All notices go to the registered address.", sampleContract[spans[2].Start:spans[2].End])
}

func TestHeuristicSegmentEmptyText(t *testing.T) {
	_, err := NewHeuristic().Segment(context.Background(), "   \n\n  ")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnprocessable))
}

func TestHeuristicHeadingRules(t *testing.T) {
	text := "This first line ends with a period.\nSo it is body text, not a heading."
	spans, err := NewHeuristic().Segment(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "", spans[0].Heading)
}

func TestLLMSegment(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	text := "Alpha clause.\n\nBeta clause."
	client.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(`[{"heading":"Alpha","start":0,"end":13},{"heading":"Beta","start":15,"end":27}]`, nil)

	spans, err := NewLLM(client, slog.Default()).Segment(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, "Alpha clause.", text[spans[0].Start:spans[0].End])
	assert.Equal(t, "Beta clause.", text[spans[1].Start:spans[1].End])
}

func TestLLMSegmentRepairsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	text := "Alpha clause.\n\nBeta clause."
	// First answer overlaps, second is fixed. The repair prompt must carry
	// the rejection so the model can see what went wrong.
	first := client.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(`[{"heading":"","start":0,"end":20},{"heading":"","start":10,"end":27}]`, nil)
	client.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Cond(func(prompt string) bool {
			return len(prompt) > 0 && containsAll(prompt, "rejected", "overlaps")
		}), gomock.Any()).
		Return("```json\n[{\"heading\":\"\",\"start\":0,\"end\":13},{\"heading\":\"\",\"start\":15,\"end\":27}]\n```", nil).
		After(first)

	spans, err := NewLLM(client, slog.Default()).Segment(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, spans, 2)
}

func TestLLMSegmentGivesUpAfterRepair(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	client.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(`not json at all`, nil).
		Times(2)

	_, err := NewLLM(client, slog.Default()).Segment(context.Background(), "some text")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnprocessable))
}

func TestLLMSegmentProviderDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	client.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("dial tcp: connection refused")).
		Times(2)

	_, err := NewLLM(client, slog.Default()).Segment(context.Background(), "some text")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnprocessable))
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
