package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	id "villageinsure/pkg/domain"
	audit "villageinsure/pkg/platform/audit"
)

var appendDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "villageinsure_audit_redis_append_duration_ms",
	Help:    "Latency of audit appends to redis in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const (
	recentKey      = "audit:events"
	actorKeyPrefix = "audit:actor:"

	// defaultMaxEvents caps the global list; per-actor lists are uncapped.
	defaultMaxEvents = 100_000
)

// Store keeps audit events in Redis lists, newest first.
type Store struct {
	client    *redis.Client
	maxEvents int64
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEvents caps the length of the global event list.
func WithMaxEvents(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, maxEvents: defaultMaxEvents}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type record struct {
	Category   string    `json:"category"`
	Timestamp  time.Time `json:"timestamp"`
	Actor      string    `json:"actor,omitempty"`
	Subject    string    `json:"subject"`
	Action     string    `json:"action"`
	Decision   string    `json:"decision,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	ProposalID string    `json:"proposal_id,omitempty"`
}

// Append pushes the event onto the global and per-actor lists in one pipeline.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	start := time.Now()
	defer func() {
		appendDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := json.Marshal(record{
		Category:   string(audit.AuditEvent(event.Action).Category()),
		Timestamp:  event.Timestamp,
		Actor:      event.Actor.String(),
		Subject:    event.Subject,
		Action:     event.Action,
		Decision:   event.Decision,
		Reason:     event.Reason,
		Amount:     event.Amount,
		RequestID:  event.RequestID,
		ProposalID: event.ProposalID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, recentKey, raw)
		pipe.LTrim(ctx, recentKey, 0, s.maxEvents-1)
		if !event.Actor.IsNil() {
			pipe.LPush(ctx, actorKeyPrefix+event.Actor.String(), raw)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByActor(ctx context.Context, actor id.Address) ([]audit.Event, error) {
	return s.list(ctx, actorKeyPrefix+actor.String(), -1)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	return s.list(ctx, recentKey, stop)
}

func (s *Store) list(ctx context.Context, key string, stop int64) ([]audit.Event, error) {
	values, err := s.client.LRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read audit list: %w", err)
	}
	events := make([]audit.Event, 0, len(values))
	for _, v := range values {
		var r record
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, fmt.Errorf("decode audit event: %w", err)
		}
		events = append(events, audit.Event{
			Category:   audit.EventCategory(r.Category),
			Timestamp:  r.Timestamp,
			Actor:      id.Address(r.Actor),
			Subject:    r.Subject,
			Action:     r.Action,
			Decision:   r.Decision,
			Reason:     r.Reason,
			Amount:     r.Amount,
			RequestID:  r.RequestID,
			ProposalID: r.ProposalID,
		})
	}
	return events, nil
}
