//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "lexdraft/pkg/domain"
	"lexdraft/pkg/testutil/containers"
)

func TestKafkaSinkPublishesAuditStream(t *testing.T) {
	kc := containers.NewKafkaContainer(t)
	ctx := context.Background()
	const topic = "lexdraft.audit.v1"

	sink, err := NewKafkaSink(ctx, kc.Brokers, topic)
	require.NoError(t, err)
	defer sink.Close()

	// A second sink against the same topic must tolerate it existing.
	second, err := NewKafkaSink(ctx, kc.Brokers, topic)
	require.NoError(t, err)
	second.Close()

	event := Event{
		ID:        id.NewEventID(),
		TenantID:  id.NewTenantID(),
		ActorID:   id.NewUserID(),
		Action:    ActionTenantCreated,
		Subject:   "tenant",
		Detail:    "Acme Legal",
		RequestID: "req-123",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, sink.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(kc.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, event.TenantID.String(), string(records[0].Key))

	var payload struct {
		ID        string `json:"id"`
		TenantID  string `json:"tenant_id"`
		ActorID   string `json:"actor_id"`
		Action    string `json:"action"`
		Subject   string `json:"subject"`
		Detail    string `json:"detail"`
		RequestID string `json:"request_id"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(records[0].Value, &payload))
	assert.Equal(t, event.ID.String(), payload.ID)
	assert.Equal(t, event.TenantID.String(), payload.TenantID)
	assert.Equal(t, event.ActorID.String(), payload.ActorID)
	assert.Equal(t, ActionTenantCreated, payload.Action)
	assert.Equal(t, "tenant", payload.Subject)
	assert.Equal(t, "Acme Legal", payload.Detail)
	assert.Equal(t, "req-123", payload.RequestID)

	published, err := time.Parse(time.RFC3339Nano, payload.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, event.Timestamp, published, time.Second)
}
