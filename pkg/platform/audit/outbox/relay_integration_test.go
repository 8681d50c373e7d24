//go:build integration

package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/audit/store/postgres"
	"villageinsure/pkg/testutil/containers"
)

func TestRelay_PostgresToKafka(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	rp := containers.NewRedpandaContainer(t)

	store := postgres.New(pg.DB)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Append(ctx, audit.Event{
		Timestamp: time.Now(),
		Actor:     "GALICE",
		Subject:   "claim:42",
		Action:    string(audit.EventClaimPaid),
		Amount:    "1200",
	}))

	producer, err := kgo.NewClient(kgo.SeedBrokers(rp.Broker))
	require.NoError(t, err)
	defer producer.Close()

	relay := NewRelay(store, producer, "test.audit")
	require.NoError(t, EnsureTopics(ctx, producer, relay.Topics(), 1, 1))

	n, err := relay.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := store.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(relay.Topic(audit.CategoryLedger)),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	var payload postgres.Payload
	require.NoError(t, json.Unmarshal(records[0].Value, &payload))
	assert.Equal(t, string(audit.EventClaimPaid), payload.Action)
	assert.Equal(t, "1200", payload.Amount)
}
