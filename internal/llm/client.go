// Package llm abstracts the model providers behind a single completion
// interface. The segmenter and the risk analyzer both talk to a Client and
// never know which provider answered.
package llm

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks Client

import "context"

// GenerationParams tune a single completion. Nil fields take the provider
// default.
type GenerationParams struct {
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
	Stop        []string
}

// Client is a single model provider.
type Client interface {
	// Generate runs one completion with a system prompt and a user prompt
	// and returns the raw text.
	Generate(ctx context.Context, system, prompt string, params GenerationParams) (string, error)
	// Name identifies the provider in logs and metrics.
	Name() string
}

func float32Ptr(v float32) *float32 { return &v }

func intPtr(v int) *int { return &v }

// DeterministicParams are shared by the structured extraction prompts, where
// sampling variety only hurts.
func DeterministicParams(maxTokens int) GenerationParams {
	return GenerationParams{
		Temperature: float32Ptr(0),
		MaxTokens:   intPtr(maxTokens),
	}
}
