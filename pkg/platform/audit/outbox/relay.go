// Package outbox relays audit events from the Postgres outbox table to Kafka.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/audit/store/postgres"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = time.Second
)

// Store is the outbox side of the Postgres audit store.
type Store interface {
	FetchUnpublished(ctx context.Context, limit int) ([]postgres.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Producer is the subset of *kgo.Client the relay needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Relay polls the outbox and publishes each entry to the topic of its category.
// Delivery is at-least-once: an entry is marked only after Kafka acknowledges it.
type Relay struct {
	store        Store
	producer     Producer
	topicPrefix  string
	batchSize    int
	pollInterval time.Duration
	logger       *slog.Logger
}

type Option func(*Relay)

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(store Store, producer Producer, topicPrefix string, opts ...Option) *Relay {
	r := &Relay{
		store:        store,
		producer:     producer,
		topicPrefix:  topicPrefix,
		batchSize:    defaultBatchSize,
		pollInterval: defaultPollInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Topic returns the Kafka topic for an event category.
func (r *Relay) Topic(category audit.EventCategory) string {
	return r.topicPrefix + "." + string(category)
}

// Topics lists every topic the relay may publish to.
func (r *Relay) Topics() []string {
	return []string{
		r.Topic(audit.CategoryLedger),
		r.Topic(audit.CategoryGovernance),
		r.Topic(audit.CategoryMembership),
	}
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch and returns the number of entries marked.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.store.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	records := make([]*kgo.Record, len(entries))
	for i, e := range entries {
		records[i] = &kgo.Record{
			Topic: r.Topic(audit.EventCategory(e.Category)),
			Key:   []byte(e.ID.String()),
			Value: e.Payload,
		}
	}

	results := r.producer.ProduceSync(ctx, records...)
	published := make([]uuid.UUID, 0, len(entries))
	var firstErr error
	for _, res := range results {
		if res.Err != nil {
			if firstErr == nil {
				firstErr = res.Err
			}
			continue
		}
		// Results are not guaranteed to follow record order; the key carries the id.
		entryID, err := uuid.ParseBytes(res.Record.Key)
		if err != nil {
			continue
		}
		published = append(published, entryID)
	}

	if err := r.store.MarkPublished(ctx, published, time.Now()); err != nil {
		return 0, err
	}
	if firstErr != nil {
		return len(published), fmt.Errorf("produce audit records: %w", firstErr)
	}
	r.logger.DebugContext(ctx, "relayed audit outbox batch", "count", len(published))
	return len(published), nil
}

// EnsureTopics creates the relay's topics, ignoring ones that already exist.
func EnsureTopics(ctx context.Context, client *kgo.Client, topics []string, partitions int32, replication int16) error {
	adm := kadm.NewClient(client)
	resps, err := adm.CreateTopics(ctx, partitions, replication, nil, topics...)
	if err != nil {
		return fmt.Errorf("create audit topics: %w", err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}
