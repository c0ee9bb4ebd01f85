package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
database:
  url: postgres://localhost/marketmood
`

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimalYAML), nil)
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, c.Environment)
	assert.Equal(t, DevelopmentPort, c.Server.Port)
	assert.Equal(t, 5, c.Database.ConnectRetries)
	assert.Equal(t, 2*time.Second, c.Database.ConnectDelay)
	assert.Equal(t, 15*time.Minute, c.Scheduler.Interval)
	assert.Equal(t, 3*time.Second, c.Live.TickInterval)
	assert.Equal(t, 5*time.Second, c.Scraper.RequestDelay)
	assert.Equal(t, 3, c.Scraper.MaxRetries)
	assert.Equal(t, SourceSimulated, c.Source.Mode)
	assert.Equal(t, ArchiveNone, c.Archive.Backend)
	assert.True(t, c.Scheduler.Enabled)
	assert.Equal(t, "marketmood.market-updates", c.Kafka.Topics.Updates)
}

func TestParseKeepsExplicitFalse(t *testing.T) {
	c, err := Parse([]byte(minimalYAML+"scheduler:\n  enabled: false\n"), nil)
	require.NoError(t, err)
	assert.False(t, c.Scheduler.Enabled)
}

func TestEnvOverrides(t *testing.T) {
	c, err := Parse([]byte(minimalYAML), env(map[string]string{
		"NODE_ENV":      "production",
		"PORT":          "8080",
		"DATABASE_URL":  "postgres://db/prod",
		"DATA_SOURCE":   "live",
		"KAFKA_BROKERS": "k1:9092,k2:9092",
		"REDIS_ADDR":    "cache:6380",
	}))
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "postgres://db/prod", c.Database.URL)
	assert.True(t, c.LiveSource())
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "cache", c.Redis.Host)
	assert.Equal(t, 6380, c.Redis.Port)
}

func TestPortRequiredOutsideDevelopment(t *testing.T) {
	_, err := Parse([]byte(minimalYAML), env(map[string]string{"NODE_ENV": "production"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"missing database": "environment: development\n",
		"bad source":       minimalYAML + "source:\n  mode: replay\n",
		"bad archive":      minimalYAML + "archive:\n  backend: s3\n",
		"archive needs ch": minimalYAML + "archive:\n  backend: clickhouse\n",
		"kafka no brokers": minimalYAML + "kafka:\n  enabled: true\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadShippedConfig(t *testing.T) {
	path := filepath.Join("..", "..", "config", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("config/config.yaml not present")
	}
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DevelopmentPort, c.Server.Port)
}
