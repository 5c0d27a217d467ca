package audit

import (
	"context"

	id "lexdraft/pkg/domain"
	"lexdraft/pkg/requestcontext"
)

// Store is the persistence port for the audit outbox.
type Store interface {
	// Append writes the event to the outbox. Implementations honor a SQL
	// transaction carried in ctx so the event commits with the domain change.
	Append(ctx context.Context, event Event) error
	// ListPending returns unpublished events in insertion order.
	ListPending(ctx context.Context, limit int) ([]Event, error)
	// MarkPublished flags events as delivered to the stream.
	MarkPublished(ctx context.Context, eventIDs []id.EventID) error
	// ListByTenant returns published and pending events for a tenant,
	// newest first.
	ListByTenant(ctx context.Context, tenantID id.TenantID, limit int) ([]Event, error)
}

// Publisher records audit events. It is append-only and uses the outbox
// store for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit fills event defaults from context and appends it to the outbox.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if p == nil || p.store == nil {
		return nil
	}
	if event.ID.IsNil() {
		event.ID = id.NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID.IsNil() {
		event.ActorID = requestcontext.UserID(ctx)
	}
	return p.store.Append(ctx, event)
}

// List returns a tenant's audit trail, newest first.
func (p *Publisher) List(ctx context.Context, tenantID id.TenantID, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return p.store.ListByTenant(ctx, tenantID, limit)
}
