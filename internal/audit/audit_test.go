package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "lexdraft/pkg/domain"
	"lexdraft/pkg/requestcontext"
)

func TestEmitFillsDefaultsFromContext(t *testing.T) {
	store := NewMemoryStore()
	publisher := NewPublisher(store)

	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	userID := id.NewUserID()
	tenantID := id.NewTenantID()

	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithUserID(ctx, userID)
	ctx = requestcontext.WithRequestID(ctx, "req-42")

	err := publisher.Emit(ctx, Event{
		TenantID: tenantID,
		Action:   ActionDocumentUploaded,
		Subject:  "doc-1",
	})
	require.NoError(t, err)

	events := store.Events()
	require.Len(t, events, 1)
	assert.False(t, events[0].ID.IsNil())
	assert.Equal(t, now, events[0].Timestamp)
	assert.Equal(t, "req-42", events[0].RequestID)
	assert.Equal(t, userID, events[0].ActorID)
	assert.Equal(t, tenantID, events[0].TenantID)
}

func TestEmitOnNilPublisher(t *testing.T) {
	var publisher *Publisher
	assert.NoError(t, publisher.Emit(context.Background(), Event{Action: ActionDocumentUploaded}))
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := NewMemoryStore()
	publisher := NewPublisher(store)
	tenantID := id.NewTenantID()
	ctx := context.Background()

	for _, subject := range []string{"a", "b", "c"} {
		require.NoError(t, publisher.Emit(ctx, Event{TenantID: tenantID, Action: ActionDocumentUploaded, Subject: subject}))
	}
	require.NoError(t, publisher.Emit(ctx, Event{TenantID: id.NewTenantID(), Action: ActionDocumentUploaded, Subject: "other"}))

	events, err := publisher.List(ctx, tenantID, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].Subject)
	assert.Equal(t, "b", events[1].Subject)
}

func TestWorkerDrainMarksPublished(t *testing.T) {
	store := NewMemoryStore()
	publisher := NewPublisher(store)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, publisher.Emit(ctx, Event{TenantID: id.NewTenantID(), Action: ActionDocumentUploaded}))
	}

	var delivered []Event
	sink := SinkFunc(func(_ context.Context, event Event) error {
		delivered = append(delivered, event)
		return nil
	})

	worker := NewWorker(store, sink, slog.Default(), time.Second)
	require.NoError(t, worker.drainOnce(ctx))
	assert.Len(t, delivered, 3)

	pending, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestWorkerStopsAtFirstSinkFailure(t *testing.T) {
	store := NewMemoryStore()
	publisher := NewPublisher(store)
	ctx := context.Background()

	for _, subject := range []string{"first", "second", "third"} {
		require.NoError(t, publisher.Emit(ctx, Event{TenantID: id.NewTenantID(), Action: ActionDocumentUploaded, Subject: subject}))
	}

	calls := 0
	sink := SinkFunc(func(_ context.Context, event Event) error {
		calls++
		if event.Subject == "second" {
			return errors.New("broker unavailable")
		}
		return nil
	})

	worker := NewWorker(store, sink, slog.Default(), time.Second)
	require.NoError(t, worker.drainOnce(ctx))
	assert.Equal(t, 2, calls)

	// Only the first event is marked; the failed one and everything behind
	// it stay pending so ordering survives the retry.
	pending, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "second", pending[0].Subject)
	assert.Equal(t, "third", pending[1].Subject)
}

func TestWorkerRedeliversUnmarkedEvents(t *testing.T) {
	store := NewMemoryStore()
	publisher := NewPublisher(store)
	ctx := context.Background()

	require.NoError(t, publisher.Emit(ctx, Event{TenantID: id.NewTenantID(), Action: ActionDocumentUploaded, Subject: "only"}))

	attempts := 0
	sink := SinkFunc(func(context.Context, Event) error {
		attempts++
		if attempts == 1 {
			return errors.New("transient")
		}
		return nil
	})

	worker := NewWorker(store, sink, slog.Default(), time.Second)
	require.NoError(t, worker.drainOnce(ctx))
	require.NoError(t, worker.drainOnce(ctx))
	assert.Equal(t, 2, attempts)

	pending, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
