package audit

import (
	"context"
	"log/slog"
	"time"

	id "lexdraft/pkg/domain"
)

// Sink receives events drained from the outbox. KafkaSink is the production
// implementation; tests use a function adapter.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Publish(ctx context.Context, event Event) error { return f(ctx, event) }

// Worker drains the outbox on an interval and forwards events to the sink.
// Delivery is at-least-once: an event is only marked published after the
// sink accepts it, so a crash between publish and mark replays the event.
type Worker struct {
	store    Store
	sink     Sink
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

func NewWorker(store Store, sink Sink, logger *slog.Logger, interval time.Duration) *Worker {
	return &Worker{
		store:    store,
		sink:     sink,
		logger:   logger,
		interval: interval,
		batch:    100,
	}
}

// Run drains until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drainOnce(ctx); err != nil {
				// Kafka or store hiccups are retried next tick.
				w.logger.WarnContext(ctx, "audit outbox drain failed", "error", err)
			}
		}
	}
}

func (w *Worker) drainOnce(ctx context.Context) error {
	pending, err := w.store.ListPending(ctx, w.batch)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	published := make([]id.EventID, 0, len(pending))
	for _, event := range pending {
		if err := w.sink.Publish(ctx, event); err != nil {
			// Stop at the first failure to preserve per-tenant ordering.
			break
		}
		published = append(published, event.ID)
	}
	if len(published) == 0 {
		return nil
	}
	return w.store.MarkPublished(ctx, published)
}
