package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: autopurchase-test
order_service:
  base_url: "http://orders.local/api"
  rate_limit: 10
retry:
  initial_delay: 2s
workers:
  - name: w1
    queue_name: auto_purchase
    subscriber:
      threads: 2
      ttr: 60s
lmstfy:
  host: lmstfy.local
  namespace: oip
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "worker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "autopurchase-test", cfg.App.Name)
	assert.Equal(t, "http://orders.local/api", cfg.OrderService.BaseURL)
	assert.Equal(t, 10.0, cfg.OrderService.RateLimit)
	assert.Equal(t, 2*time.Second, cfg.Retry.InitialDelay)
	require.Len(t, cfg.Workers, 1)
	assert.Equal(t, 60*time.Second, cfg.Workers[0].Subscriber.TTR)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: x\n"))
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 10, cfg.Confirmation.MaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.Confirmation.MaxWait)
	assert.Equal(t, 5, cfg.Purchase.MaxConcurrentPurchases)
	assert.Equal(t, 60.0, cfg.Selection.MinReliabilityScore)
	assert.Equal(t, 5*time.Minute, cfg.Availability.CacheTTL)
	assert.Equal(t, time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, "auto_purchase_complete", cfg.Redis.PurchaseChannel)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AUTOPURCHASE_ORDER_SERVICE_BASE_URL", "http://override:9000")
	t.Setenv("AUTOPURCHASE_PURCHASE_MAX_CONCURRENT_PURCHASES", "8")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "http://override:9000", cfg.OrderService.BaseURL)
	assert.Equal(t, 8, cfg.Purchase.MaxConcurrentPurchases)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config failed")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(writeConfig(t, sample))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing base url", func(c *Config) { c.OrderService.BaseURL = "" }, "order_service.base_url is required"},
		{"missing name", func(c *Config) { c.App.Name = "" }, "app.name is required"},
		{"zero concurrency", func(c *Config) { c.Purchase.MaxConcurrentPurchases = 0 }, "purchase.max_concurrent_purchases must be positive"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts must be positive"},
		{"negative fallbacks", func(c *Config) { c.Selection.FallbackProviderCount = -1 }, "must not be negative"},
		{"redis without addr", func(c *Config) { c.Store.Backend = "redis" }, "redis.addr is required"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "etcd" }, `unknown store.backend: "etcd"`},
		{"workers without lmstfy", func(c *Config) { c.Lmstfy.Host = "" }, "lmstfy.host is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	cfg := valid()
	cfg.Store.Backend = "redis"
	cfg.Redis.Addr = "127.0.0.1:6379"
	assert.NoError(t, cfg.Validate())
}
