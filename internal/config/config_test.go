package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.Queue.Enabled())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
env: production
server:
  port: ":9090"
scorer:
  url: http://scorer.internal:8000
  timeout: 2s
cache:
  driver: redis
  redis_addr: localhost:6379
  ttl: 1h
storage:
  driver: postgres
  dsn: postgres://fraud:fraud@db/fraudshield?sslmode=disable
queue:
  brokers: [kafka-1:9092, kafka-2:9092]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "http://scorer.internal:8000", cfg.Scorer.URL)
	assert.Equal(t, 2*time.Second, cfg.Scorer.Timeout)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Queue.Brokers)
	assert.Equal(t, "messages.inbound", cfg.Queue.InboundTopic, "unset keys keep defaults")
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "scorer:\n  url: http://from-file:8000\n")
	t.Setenv("FRAUDSHIELD_SCORER__URL", "http://from-env:8000")
	t.Setenv("FRAUDSHIELD_QUEUE__GROUP_ID", "fraud-workers")
	t.Setenv("FRAUDSHIELD_LOG__LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:8000", cfg.Scorer.URL)
	assert.Equal(t, "fraud-workers", cfg.Queue.GroupID)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "cache.redis_addr", envKey("FRAUDSHIELD_CACHE__REDIS_ADDR"))
	assert.Equal(t, "env", envKey("FRAUDSHIELD_ENV"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad storage driver", func(c *Config) { c.Storage.Driver = "mongo" }, `storage.driver "mongo"`},
		{"empty dsn", func(c *Config) { c.Storage.DSN = "" }, "storage.dsn is required"},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, `cache.driver "memcached"`},
		{"redis without addr", func(c *Config) { c.Cache.Driver = "redis" }, "cache.redis_addr is required"},
		{"empty scorer url", func(c *Config) { c.Scorer.URL = "" }, "scorer.url is required"},
		{"zero timeout", func(c *Config) { c.Scorer.Timeout = 0 }, "scorer.timeout must be positive"},
		{"brokers without group", func(c *Config) {
			c.Queue.Brokers = []string{"k:9092"}
			c.Queue.GroupID = ""
		}, "queue.inbound_topic and queue.group_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FRAUDSHIELD_LOG__LEVEL=warn\n"), 0o644))
	chdir(t, dir)
	t.Cleanup(func() { os.Unsetenv("FRAUDSHIELD_LOG__LEVEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BAD-KEY=1\n"), 0o644))
	chdir(t, dir)

	_, err := Load("")
	assert.ErrorContains(t, err, "config: load .env")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
