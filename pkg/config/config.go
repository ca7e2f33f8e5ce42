package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the global worker configuration
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Store        StoreConfig        `mapstructure:"store"`
	MySQL        MySQLConfig        `mapstructure:"mysql"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Lmstfy       LmstfyConfig       `mapstructure:"lmstfy"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	OrderService OrderServiceConfig `mapstructure:"order_service"`
	Selection    SelectionConfig    `mapstructure:"selection"`
	Availability AvailabilityConfig `mapstructure:"availability"`
	Retry        RetryConfig        `mapstructure:"retry"`
	Confirmation ConfirmationConfig `mapstructure:"confirmation"`
	Purchase     PurchaseConfig     `mapstructure:"purchase"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Workers      []WorkerConfig     `mapstructure:"workers"`
}

// AppConfig application settings
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig manual-trigger HTTP surface
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

// StoreConfig selects the backend of the availability cache and in-flight set.
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // memory | redis
}

// MySQLConfig purchase audit database. Empty DSN disables the audit trail.
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis connection
type RedisConfig struct {
	Addr            string `mapstructure:"addr"`
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db"`
	PurchaseChannel string `mapstructure:"purchase_channel"`
}

// LmstfyConfig lmstfy connection
type LmstfyConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Namespace     string `mapstructure:"namespace"`
	Token         string `mapstructure:"token"`
	CallbackQueue string `mapstructure:"callback_queue"`
}

// KafkaConfig outcome event producer. Empty brokers disables it.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// OrderServiceConfig external order service client
type OrderServiceConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	RateLimit  float64       `mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst  int           `mapstructure:"rate_burst"`
}

// SelectionConfig provider scoring
type SelectionConfig struct {
	MinReliabilityScore   float64 `mapstructure:"min_reliability_score"`
	FallbackProviderCount int     `mapstructure:"fallback_provider_count"`
	MaxReasonablePrice    float64 `mapstructure:"max_reasonable_price"`
	DefaultMaxDelivery    int     `mapstructure:"default_max_delivery_days"`
}

// AvailabilityConfig stock check cache
type AvailabilityConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// RetryConfig placement retry policy
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
}

// ConfirmationConfig polling limits
type ConfirmationConfig struct {
	MaxRetries   int           `mapstructure:"max_retries"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// PurchaseConfig batch limits
type PurchaseConfig struct {
	MaxConcurrentPurchases int           `mapstructure:"max_concurrent_purchases"`
	BatchPause             time.Duration `mapstructure:"batch_pause"`
}

// SchedulerConfig processing loop
type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// WorkerConfig queue worker
type WorkerConfig struct {
	Name       string           `mapstructure:"name"`
	QueueName  string           `mapstructure:"queue_name"`
	Subscriber SubscriberConfig `mapstructure:"subscriber"`
	Processor  ProcessorConfig  `mapstructure:"processor"`
}

// SubscriberConfig queue pulling
type SubscriberConfig struct {
	Threads      int           `mapstructure:"threads"`
	Rate         time.Duration `mapstructure:"rate"`
	Timeout      time.Duration `mapstructure:"timeout"`
	TTR          time.Duration `mapstructure:"ttr"`
	ErrorBackoff time.Duration `mapstructure:"error_backoff"`
}

// ProcessorConfig job processing
type ProcessorConfig struct {
	Threads    int           `mapstructure:"threads"`
	BufferSize int           `mapstructure:"buffer_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// setDefaults registers the engine defaults on v
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "autopurchase")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", "8080")

	v.SetDefault("store.backend", "memory")
	v.SetDefault("redis.purchase_channel", "auto_purchase_complete")

	v.SetDefault("order_service.timeout", 30*time.Second)
	v.SetDefault("order_service.max_retries", 3)
	v.SetDefault("order_service.retry_delay", time.Second)
	v.SetDefault("order_service.rate_burst", 1)

	v.SetDefault("selection.min_reliability_score", 60)
	v.SetDefault("selection.fallback_provider_count", 2)
	v.SetDefault("selection.max_reasonable_price", 1000)
	v.SetDefault("selection.default_max_delivery_days", 30)

	v.SetDefault("availability.cache_ttl", 5*time.Minute)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_delay", time.Second)
	v.SetDefault("retry.max_delay", 30*time.Second)
	v.SetDefault("retry.multiplier", 2.0)

	v.SetDefault("confirmation.max_retries", 10)
	v.SetDefault("confirmation.max_wait", 5*time.Minute)
	v.SetDefault("confirmation.poll_interval", 30*time.Second)

	v.SetDefault("purchase.max_concurrent_purchases", 5)
	v.SetDefault("purchase.batch_pause", time.Second)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", time.Minute)
}

// Load reads the YAML file at configPath. AUTOPURCHASE_* env vars override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AUTOPURCHASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if c.OrderService.BaseURL == "" {
		return fmt.Errorf("order_service.base_url is required")
	}
	if c.Purchase.MaxConcurrentPurchases <= 0 {
		return fmt.Errorf("purchase.max_concurrent_purchases must be positive")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be positive")
	}
	if c.Selection.FallbackProviderCount < 0 {
		return fmt.Errorf("selection.fallback_provider_count must not be negative")
	}
	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when store.backend is redis")
		}
	default:
		return fmt.Errorf("unknown store.backend: %q", c.Store.Backend)
	}
	if len(c.Workers) > 0 && c.Lmstfy.Host == "" {
		return fmt.Errorf("lmstfy.host is required when workers are configured")
	}
	return nil
}
