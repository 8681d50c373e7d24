package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"villageinsure/internal/platform/config"
	platformredis "villageinsure/internal/platform/redis"
	audit "villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/audit/outbox"
	auditmemory "villageinsure/pkg/platform/audit/store/memory"
	auditpostgres "villageinsure/pkg/platform/audit/store/postgres"
	auditredis "villageinsure/pkg/platform/audit/store/redis"
)

const connectTimeout = 10 * time.Second

// auditBackend is the selected audit store plus what main must check and
// release for it.
type auditBackend struct {
	store   audit.Store
	health  func(ctx context.Context) error
	closers []func() error
}

func (b *auditBackend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

// openAuditBackend builds the configured audit store. The Postgres backend
// starts the outbox relay on g when Kafka brokers are configured. The Redis
// backend shares the process-wide client, which config guarantees is set.
func openAuditBackend(ctx context.Context, cfg config.Config, g *errgroup.Group, rdb *platformredis.Client, log *slog.Logger) (*auditBackend, error) {
	switch cfg.Audit.Backend {
	case config.AuditBackendPostgres:
		return openPostgresAudit(ctx, cfg, g, log)
	case config.AuditBackendRedis:
		log.InfoContext(ctx, "audit events stored in redis")
		return &auditBackend{
			store:  auditredis.New(rdb.Client),
			health: rdb.Health,
		}, nil
	default:
		log.InfoContext(ctx, "audit events kept in memory")
		return &auditBackend{store: auditmemory.NewInMemoryStore()}, nil
	}
}

func openPostgresAudit(ctx context.Context, cfg config.Config, g *errgroup.Group, log *slog.Logger) (*auditBackend, error) {
	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	backend := &auditBackend{health: db.PingContext, closers: []func() error{db.Close}}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(connectCtx); err != nil {
		backend.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	store := auditpostgres.New(db)
	if err := store.Migrate(connectCtx); err != nil {
		backend.Close()
		return nil, err
	}
	backend.store = store

	if len(cfg.Kafka.Brokers) == 0 {
		log.WarnContext(ctx, "KAFKA_BROKERS not set, audit outbox will not be relayed")
		return backend, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Kafka.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	backend.closers = append(backend.closers, func() error {
		client.Close()
		return nil
	})

	relay := outbox.NewRelay(store, client, cfg.Kafka.TopicPrefix,
		outbox.WithPollInterval(cfg.Kafka.RelayInterval),
		outbox.WithLogger(log),
	)
	if err := outbox.EnsureTopics(connectCtx, client, relay.Topics(), cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
		backend.Close()
		return nil, err
	}
	g.Go(func() error { return relay.Run(ctx) })
	log.InfoContext(ctx, "audit outbox relay started",
		"brokers", cfg.Kafka.Brokers,
		"topic_prefix", cfg.Kafka.TopicPrefix,
	)
	return backend, nil
}
