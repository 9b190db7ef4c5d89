package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DSN", "KAFKA_BROKERS", "RATE_LIMIT", "OUTBOX_INTERVAL", "COOKIE_SECURE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "bazaar.db", cfg.DBDSN)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 120, cfg.RateLimit)
	assert.Equal(t, 2*time.Second, cfg.OutboxInterval)
	assert.False(t, cfg.CookieSecure)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("RATE_LIMIT", "not-a-number")
	t.Setenv("OUTBOX_INTERVAL", "500ms")
	t.Setenv("COOKIE_SECURE", "true")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 120, cfg.RateLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.OutboxInterval)
	assert.True(t, cfg.CookieSecure)
}
