package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"villageinsure/internal/rules"
	id "villageinsure/pkg/domain"
	platformstrings "villageinsure/pkg/platform/strings"
)

// Config is the full process configuration.
type Config struct {
	Server    Server
	Redis     RedisConfig
	Postgres  PostgresConfig
	Kafka     KafkaConfig
	Audit     AuditConfig
	Pool      PoolConfig
	RateLimit RateLimitConfig
	Rules     rules.Rules
	// GenesisDAOMembers are registered as active DAO members at startup.
	GenesisDAOMembers []id.Address
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	DevMode         bool
	JWTSigningKey   string
	JWTIssuer       string
	JWTAudience     string
	AdminToken      string
	TxTimeout       time.Duration
	ShutdownTimeout time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
}

type KafkaConfig struct {
	Brokers       []string
	TopicPrefix   string
	Partitions    int32
	Replication   int16
	RelayInterval time.Duration
}

// AuditBackend selects where audit events are stored.
type AuditBackend string

const (
	AuditBackendMemory   AuditBackend = "memory"
	AuditBackendPostgres AuditBackend = "postgres"
	AuditBackendRedis    AuditBackend = "redis"
)

type AuditConfig struct {
	Backend    AuditBackend
	BufferSize int
}

type PoolConfig struct {
	MinimumReserve decimal.Decimal
}

// RateLimitConfig bounds state-changing requests per wallet. Limits are shared
// through Redis when REDIS_URL is set.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv loads .env (when present) and builds the configuration from
// environment variables so main stays lean.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return fromLookup(os.Getenv)
}

func fromLookup(get func(string) string) (Config, error) {
	p := parser{get: get}

	cfg := Config{
		Server: Server{
			Addr:            p.str("VILLAGE_ADDR", ":8080"),
			LogLevel:        p.str("LOG_LEVEL", "info"),
			DevMode:         p.boolean("DEV_MODE", false),
			JWTSigningKey:   p.str("JWT_SIGNING_KEY", ""),
			JWTIssuer:       p.str("JWT_ISSUER", "villageinsure"),
			JWTAudience:     p.str("JWT_AUDIENCE", "villageinsure-api"),
			AdminToken:      p.str("ADMIN_API_TOKEN", ""),
			TxTimeout:       p.duration("LEDGER_TX_TIMEOUT", 5*time.Second),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:          p.str("DATABASE_URL", ""),
			MaxOpenConns: p.integer("DATABASE_MAX_OPEN_CONNS", 10),
		},
		Kafka: KafkaConfig{
			Brokers:       p.list("KAFKA_BROKERS"),
			TopicPrefix:   p.str("KAFKA_TOPIC_PREFIX", "villageinsure.audit"),
			Partitions:    int32(p.integer("KAFKA_TOPIC_PARTITIONS", 1)),
			Replication:   int16(p.integer("KAFKA_TOPIC_REPLICATION", 1)),
			RelayInterval: p.duration("OUTBOX_RELAY_INTERVAL", time.Second),
		},
		Audit: AuditConfig{
			Backend:    AuditBackend(p.str("AUDIT_BACKEND", string(AuditBackendMemory))),
			BufferSize: p.integer("AUDIT_BUFFER_SIZE", 1024),
		},
		Pool: PoolConfig{
			MinimumReserve: p.decimal("POOL_MINIMUM_RESERVE", decimal.Zero),
		},
		RateLimit: RateLimitConfig{
			Enabled:  p.boolean("RATE_LIMIT_ENABLED", true),
			Requests: p.integer("RATE_LIMIT_REQUESTS", 60),
			Window:   p.duration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}

	defaults := rules.Defaults()
	cfg.Rules = rules.Rules{
		GracePeriodWeeks:       p.integer("RULES_GRACE_PERIOD_WEEKS", defaults.GracePeriodWeeks),
		MinimumQuorum:          p.integer("RULES_MINIMUM_QUORUM", defaults.MinimumQuorum),
		ProposalDuration:       p.duration("RULES_PROPOSAL_DURATION", defaults.ProposalDuration),
		PenaltyRateBps:         int64(p.integer("RULES_PENALTY_RATE_BPS", int(defaults.PenaltyRateBps))),
		CouncilSize:            p.integer("RULES_COUNCIL_SIZE", defaults.CouncilSize),
		MaxClaimAmountRatioBps: int64(p.integer("RULES_MAX_CLAIM_AMOUNT_RATIO_BPS", int(defaults.MaxClaimAmountRatioBps))),
		RequireMemberApproval:  p.boolean("RULES_REQUIRE_MEMBER_APPROVAL", defaults.RequireMemberApproval),
		InitialCreditScore:     p.integer("RULES_INITIAL_CREDIT_SCORE", defaults.InitialCreditScore),
		CreditRewardOnPayout:   p.integer("RULES_CREDIT_REWARD_ON_PAYOUT", defaults.CreditRewardOnPayout),
		ClaimQuorum:            p.integer("RULES_CLAIM_QUORUM", defaults.ClaimQuorum),
	}

	for _, raw := range p.list("GENESIS_DAO_MEMBERS") {
		addr, err := id.ParseAddress(raw)
		if err != nil {
			p.fail("GENESIS_DAO_MEMBERS", err)
			continue
		}
		cfg.GenesisDAOMembers = append(cfg.GenesisDAOMembers, addr)
	}

	if err := p.err(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.JWTSigningKey == "" {
		if !c.Server.DevMode {
			return errors.New("JWT_SIGNING_KEY is required outside dev mode")
		}
		c.Server.JWTSigningKey = devSigningKey
	}
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("platform rules: %w", err)
	}
	if c.Pool.MinimumReserve.IsNegative() {
		return errors.New("POOL_MINIMUM_RESERVE must not be negative")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	switch c.Audit.Backend {
	case AuditBackendMemory:
	case AuditBackendPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("AUDIT_BACKEND=postgres requires DATABASE_URL")
		}
	case AuditBackendRedis:
		if c.Redis.URL == "" {
			return errors.New("AUDIT_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown AUDIT_BACKEND %q", c.Audit.Backend)
	}
	return nil
}

// parser collects the first parse failure so FromEnv reports one error.
type parser struct {
	get   func(string) string
	first error
}

func (p *parser) fail(key string, err error) {
	if p.first == nil {
		p.first = fmt.Errorf("%s: %w", key, err)
	}
}

func (p *parser) err() error { return p.first }

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.get(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := strings.TrimSpace(p.get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *parser) boolean(key string, def bool) bool {
	v := strings.TrimSpace(p.get(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.get(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}

func (p *parser) decimal(key string, def decimal.Decimal) decimal.Decimal {
	v := strings.TrimSpace(p.get(key))
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}

func (p *parser) list(key string) []string {
	return platformstrings.SplitUnique(p.get(key), ",")
}
