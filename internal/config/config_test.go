package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
postgres:
  dsn: "postgres://localhost:5432/notifier"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, ":8080", cfg.HTTP.Port)
	assert.Equal(t, "release", cfg.HTTP.GinMode)
	assert.Equal(t, ":9091", cfg.Metrics.Addr)
	assert.Equal(t, "log_only", cfg.Notifiers.Mode)
	assert.Equal(t, 5, cfg.Worker.Count)
	assert.Equal(t, 5, cfg.Worker.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Worker.RetryBaseDelay)
	assert.Equal(t, "Notification", cfg.Notifiers.Email.Subject)
	assert.Equal(t, "postgres://localhost:5432/notifier", cfg.Postgres.DSN)
}

func TestLoadReadsEverySection(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
http:
  port: ":9000"
  gin_mode: debug
metrics:
  addr: ":9100"
postgres:
  dsn: "postgres://db:5432/notifier"
  pool:
    max_conns: 20
    min_conns: 4
    conn_max_lifetime: 30m
rabbitmq:
  dsn: "amqp://broker:5672/"
redis:
  addr: "cache:6379"
  db: 3
worker:
  count: 2
  max_retries: 7
  retry_base_delay: 1s
notifiers:
  mode: production
  email:
    host: smtp.example.com
    port: 465
    from: "no-reply@example.com"
  sms:
    url: "https://sms.example.com/send"
    api_key: "secret"
    from: "fanout"
  telegram:
    bot_token: "123:abc"
  push:
    enabled: true
    title: "Heads up"
    timeout: 3s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, ":9000", cfg.HTTP.Port)
	assert.Equal(t, int32(20), cfg.Postgres.Pool.MaxConns)
	assert.Equal(t, int32(4), cfg.Postgres.Pool.MinConns)
	assert.Equal(t, 30*time.Minute, cfg.Postgres.Pool.ConnMaxLifetime)
	assert.Equal(t, "amqp://broker:5672/", cfg.RabbitMQ.DSN)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 2, cfg.Worker.Count)
	assert.Equal(t, 7, cfg.Worker.MaxRetries)
	assert.Equal(t, time.Second, cfg.Worker.RetryBaseDelay)
	assert.Equal(t, "production", cfg.Notifiers.Mode)
	assert.Equal(t, "smtp.example.com", cfg.Notifiers.Email.Host)
	assert.Equal(t, "https://sms.example.com/send", cfg.Notifiers.SMS.URL)
	assert.Equal(t, "123:abc", cfg.Notifiers.Telegram.BotToken)
	assert.True(t, cfg.Notifiers.Push.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Notifiers.Push.Timeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
