package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villageinsure/internal/rules"
	id "villageinsure/pkg/domain"
)

func lookup(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestFromLookup(t *testing.T) {
	t.Run("dev defaults", func(t *testing.T) {
		cfg, err := fromLookup(lookup(map[string]string{"DEV_MODE": "true"}))
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, devSigningKey, cfg.Server.JWTSigningKey)
		assert.Equal(t, rules.Defaults(), cfg.Rules)
		assert.Equal(t, AuditBackendMemory, cfg.Audit.Backend)
		assert.True(t, cfg.Pool.MinimumReserve.IsZero())
		assert.Equal(t, RateLimitConfig{Enabled: true, Requests: 60, Window: time.Minute}, cfg.RateLimit)
	})

	t.Run("signing key required outside dev mode", func(t *testing.T) {
		_, err := fromLookup(lookup(map[string]string{}))
		require.Error(t, err)
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := fromLookup(lookup(map[string]string{
			"JWT_SIGNING_KEY":          "k",
			"RULES_GRACE_PERIOD_WEEKS": "3",
			"RULES_PROPOSAL_DURATION":  "72h",
			"POOL_MINIMUM_RESERVE":     "1000.50",
			"GENESIS_DAO_MEMBERS":      "GALICE, GBOB ,",
			"KAFKA_BROKERS":            "a:9092,b:9092",
		}))
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Rules.GracePeriodWeeks)
		assert.Equal(t, 72*time.Hour, cfg.Rules.ProposalDuration)
		assert.True(t, decimal.RequireFromString("1000.50").Equal(cfg.Pool.MinimumReserve))
		assert.Equal(t, []id.Address{"GALICE", "GBOB"}, cfg.GenesisDAOMembers)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	})

	t.Run("malformed values fail", func(t *testing.T) {
		for key, val := range map[string]string{
			"RULES_MINIMUM_QUORUM": "three",
			"LEDGER_TX_TIMEOUT":    "soon",
			"POOL_MINIMUM_RESERVE": "-5",
			"RULES_CLAIM_QUORUM":   "0",
			"AUDIT_BACKEND":        "s3",
			"RATE_LIMIT_REQUESTS":  "0",
		} {
			_, err := fromLookup(lookup(map[string]string{"DEV_MODE": "true", key: val}))
			assert.Error(t, err, key)
		}
	})

	t.Run("backend dependencies", func(t *testing.T) {
		_, err := fromLookup(lookup(map[string]string{"DEV_MODE": "true", "AUDIT_BACKEND": "postgres"}))
		require.Error(t, err)
		_, err = fromLookup(lookup(map[string]string{"DEV_MODE": "true", "AUDIT_BACKEND": "redis", "REDIS_URL": "redis://localhost:6379"}))
		require.NoError(t, err)
	})
}
