// Package analyzer turns clause text into a structured risk assessment.
package analyzer

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"lexdraft/internal/analysis/models"
	"lexdraft/internal/llm"
	dErrors "lexdraft/pkg/domain-errors"
)

const analyzeSystemPrompt = `You are a contract risk reviewer for commercial legal teams.
Assess the single clause you are given. Respond with one JSON object only, no prose:
{"risk_level": "low"|"medium"|"high", "issues": ["<short issue>", ...], "suggested_text": "<replacement clause text, or empty string if no change needed>", "rationale": "<one or two sentences>"}
Flag one-sided obligations, uncapped liability, auto-renewal traps, unusual indemnities and missing protections. An empty issues list means the clause is unremarkable.`

type llmAssessment struct {
	RiskLevel     string   `json:"risk_level" validate:"oneof=low medium high"`
	Issues        []string `json:"issues" validate:"dive,max=500"`
	SuggestedText string   `json:"suggested_text"`
	Rationale     string   `json:"rationale" validate:"required,max=2000"`
}

// Analyzer asks a model to grade one clause. Model output is untrusted
// and validated before it becomes a Result.
type Analyzer struct {
	client   llm.Client
	validate *validator.Validate
}

func New(client llm.Client) *Analyzer {
	return &Analyzer{
		client:   client,
		validate: validator.New(),
	}
}

// Analyze grades the clause. The returned result carries the provider
// name; the caller attaches clause identity and timestamps.
func (a *Analyzer) Analyze(ctx context.Context, clauseText string) (*models.Result, error) {
	raw, err := a.client.Generate(ctx, analyzeSystemPrompt, "Clause:\n\n"+clauseText, llm.DeterministicParams(2048))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "analysis model unavailable")
	}

	payload, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnprocessable, "analysis response is not JSON")
	}

	var decoded llmAssessment
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnprocessable, "analysis response does not decode")
	}
	if err := a.validate.Struct(decoded); err != nil {
		return nil, dErrors.Newf(dErrors.CodeUnprocessable, "analysis response invalid: %v", err)
	}

	issues := decoded.Issues
	if issues == nil {
		issues = []string{}
	}
	return &models.Result{
		RiskLevel:     models.RiskLevel(decoded.RiskLevel),
		Issues:        issues,
		SuggestedText: decoded.SuggestedText,
		Rationale:     decoded.Rationale,
		Model:         a.client.Name(),
	}, nil
}
