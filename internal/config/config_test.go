package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Listen, cfg.Listen)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrency)
	assert.Equal(t, 4*time.Hour, cfg.Alerts.PendingAfter)
	assert.Equal(t, time.UTC, cfg.Alerts.Location)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleanops.yaml")
	data := `
listen: ":9000"
db_path: /var/lib/cleanops.db
timezone: UTC
batch:
  max_concurrency: 8
lifecycle:
  allow_skip: true
alerts:
  pending_after: 2h
  uncleaned_after: 24h
  max_alerts: 5
events:
  brokers: [kafka:9092]
  topic: ops
cache:
  redis_addr: redis:6379
  ttl: 30s
watcher:
  interval: 15s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "/var/lib/cleanops.db", cfg.DBPath)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrency)
	assert.True(t, cfg.Lifecycle.AllowSkip)
	assert.Equal(t, 2*time.Hour, cfg.Alerts.PendingAfter)
	assert.Equal(t, 8*time.Hour, cfg.Alerts.InProgressAfter, "unset keys keep defaults")
	assert.Equal(t, 24*time.Hour, cfg.Alerts.UncleanedAfter)
	assert.Equal(t, 5, cfg.Alerts.MaxAlerts)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Events.Brokers)
	assert.Equal(t, "ops", cfg.Events.Topic)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 15*time.Second, cfg.Watcher.Interval)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleanops.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch:\n  max_concurrency: 0\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("listen: [broken"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvListen, ":8081")
	t.Setenv(EnvDB, "/tmp/x.db")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvKafkaBrokers, "k1:9092, k2:9092,")
	t.Setenv(EnvKafkaTopic, "cleaning")
	t.Setenv(EnvRedisAddr, "localhost:6379")
	t.Setenv(EnvRedisPassword, "secret")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, ":8081", cfg.Listen)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Brokers)
	assert.Equal(t, "cleaning", cfg.Events.Topic)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, "secret", cfg.Cache.RedisPassword)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Timezone = "Not/AZone"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Events.Brokers = []string{"k:9092"}
	cfg.Events.Topic = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Listen = ""
	assert.Error(t, cfg.Validate())
}
