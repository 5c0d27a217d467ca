package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "lexdraft_llm_request_seconds",
	Help:    "LLM completion latency by provider and outcome",
	Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
}, []string{"provider", "outcome"})

// Manager fans a completion out to the configured providers in order,
// failing over to the next when one errors. Context cancellation stops the
// chain; a provider that merely returns garbage does not, since the caller
// validates the payload.
type Manager struct {
	clients []Client
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewManager(logger *slog.Logger, clients ...Client) (*Manager, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("at least one llm client is required")
	}
	return &Manager{
		clients: clients,
		logger:  logger,
		tracer:  otel.Tracer("lexdraft/llm"),
	}, nil
}

// Name identifies the primary provider.
func (m *Manager) Name() string { return m.clients[0].Name() }

// Generate implements Client by delegating to the first provider that
// answers.
func (m *Manager) Generate(ctx context.Context, system, prompt string, params GenerationParams) (string, error) {
	var errs []error
	for _, client := range m.clients {
		text, err := m.generateOne(ctx, client, system, prompt, params)
		if err == nil {
			return text, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", client.Name(), err))
		if ctx.Err() != nil {
			break
		}
		m.logger.WarnContext(ctx, "llm provider failed, trying next",
			"provider", client.Name(),
			"error", err,
		)
	}
	return "", fmt.Errorf("all llm providers failed: %w", errors.Join(errs...))
}

func (m *Manager) generateOne(ctx context.Context, client Client, system, prompt string, params GenerationParams) (string, error) {
	ctx, span := m.tracer.Start(ctx, "llm.generate",
		trace.WithAttributes(
			attribute.String("llm.provider", client.Name()),
			attribute.Int("llm.prompt_chars", len(prompt)),
		),
	)
	defer span.End()

	start := time.Now()
	text, err := client.Generate(ctx, system, prompt, params)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	requestDuration.WithLabelValues(client.Name(), outcome).Observe(time.Since(start).Seconds())
	return text, err
}
