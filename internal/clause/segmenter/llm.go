package segmenter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"lexdraft/internal/clause/models"
	"lexdraft/internal/llm"
	dErrors "lexdraft/pkg/domain-errors"
)

const segmentSystemPrompt = `You are a contract analysis engine. Split the contract text into its semantic clauses.
Respond with a JSON array only, no prose. Each element:
{"heading": "<clause heading or empty string>", "start": <byte offset>, "end": <byte offset>}
Offsets index into the exact text you were given. Clauses must be in document order and must not overlap.`

type llmSpan struct {
	Heading string `json:"heading" validate:"max=200"`
	Start   int    `json:"start" validate:"gte=0"`
	End     int    `json:"end" validate:"gtfield=Start"`
}

// LLM segments via a model. Model output is untrusted: offsets are checked
// against the text and one repair round trip is allowed before giving up.
type LLM struct {
	client   llm.Client
	validate *validator.Validate
	logger   *slog.Logger
}

func NewLLM(client llm.Client, logger *slog.Logger) *LLM {
	return &LLM{
		client:   client,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *LLM) Segment(ctx context.Context, text string) ([]models.Span, error) {
	prompt := "Contract text:\n\n" + text

	spans, err := s.segmentOnce(ctx, prompt)
	if err == nil {
		err = models.ValidateSpans(text, spans)
		if err == nil {
			return spans, nil
		}
	}

	// One repair attempt with the failure fed back.
	s.logger.WarnContext(ctx, "segmentation invalid, retrying once", "error", err)
	repairPrompt := fmt.Sprintf("%s\n\nYour previous segmentation was rejected: %v\nReturn a corrected JSON array.", prompt, err)
	spans, retryErr := s.segmentOnce(ctx, repairPrompt)
	if retryErr != nil {
		return nil, dErrors.Wrap(retryErr, dErrors.CodeUnprocessable, "model could not segment document")
	}
	if verr := models.ValidateSpans(text, spans); verr != nil {
		return nil, verr
	}
	return spans, nil
}

func (s *LLM) segmentOnce(ctx context.Context, prompt string) ([]models.Span, error) {
	raw, err := s.client.Generate(ctx, segmentSystemPrompt, prompt, llm.DeterministicParams(8192))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "segmentation model unavailable")
	}

	payload, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnprocessable, "segmentation response is not JSON")
	}

	var decoded []llmSpan
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnprocessable, "segmentation response does not decode")
	}

	spans := make([]models.Span, 0, len(decoded))
	for i, span := range decoded {
		if err := s.validate.Struct(span); err != nil {
			return nil, dErrors.Newf(dErrors.CodeUnprocessable, "segmentation clause %d invalid: %v", i, err)
		}
		spans = append(spans, models.Span{Heading: span.Heading, Start: span.Start, End: span.End})
	}
	return spans, nil
}
