// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Store   StoreConfig   `mapstructure:"store"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Images  ImagesConfig  `mapstructure:"images"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port            int `mapstructure:"port"`
	RequestTimeout  int `mapstructure:"request_timeout_seconds"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

// CrawlerConfig governs page fetching and extraction.
type CrawlerConfig struct {
	TargetURL         string         `mapstructure:"target_url"`
	PageLimit         int            `mapstructure:"page_limit"`
	Proxy             string         `mapstructure:"proxy"`
	UserAgent         string         `mapstructure:"user_agent"`
	TimeoutSeconds    int            `mapstructure:"timeout_seconds"`
	MaxAttempts       int            `mapstructure:"max_attempts"`
	RetryDelaySeconds int            `mapstructure:"retry_delay_seconds"`
	Selectors         SelectorConfig `mapstructure:"selectors"`
}

// SelectorConfig names the CSS selectors used to extract product fields.
// These are configured per target site.
type SelectorConfig struct {
	Item      string `mapstructure:"item"`
	Title     string `mapstructure:"title"`
	Price     string `mapstructure:"price"`
	Image     string `mapstructure:"image"`
	ImageAttr string `mapstructure:"image_attr"`
}

// CacheConfig selects and configures the price cache backend.
type CacheConfig struct {
	Backend string            `mapstructure:"backend"`
	Redis   RedisCacheConfig  `mapstructure:"redis"`
	Memory  MemoryCacheConfig `mapstructure:"memory"`
}

// RedisCacheConfig holds connection settings for the Redis price cache.
type RedisCacheConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// MemoryCacheConfig sizes the in-memory price cache.
type MemoryCacheConfig struct {
	Size int `mapstructure:"size"`
}

// StoreConfig selects and configures the product store backend.
type StoreConfig struct {
	Backend  string              `mapstructure:"backend"`
	File     FileStoreConfig     `mapstructure:"file"`
	Postgres PostgresStoreConfig `mapstructure:"postgres"`
}

// FileStoreConfig locates the JSON product file.
type FileStoreConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresStoreConfig controls access to the relational product store.
type PostgresStoreConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// NotifyConfig selects and configures the completion notifier.
type NotifyConfig struct {
	Backend string              `mapstructure:"backend"`
	Webhook WebhookNotifyConfig `mapstructure:"webhook"`
	PubSub  PubSubNotifyConfig  `mapstructure:"pubsub"`
}

// WebhookNotifyConfig holds the webhook notifier endpoint.
type WebhookNotifyConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PubSubNotifyConfig holds metadata for publish-subscribe notifications.
type PubSubNotifyConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// ImagesConfig selects and configures image download and storage.
type ImagesConfig struct {
	Backend        string `mapstructure:"backend"`
	Dir            string `mapstructure:"dir"`
	GCSBucket      string `mapstructure:"gcs_bucket"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRICEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 300)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("crawler.user_agent", "pricewatch-bot/1.0")
	v.SetDefault("crawler.timeout_seconds", 15)
	v.SetDefault("crawler.max_attempts", 3)
	v.SetDefault("crawler.retry_delay_seconds", 5)
	v.SetDefault("crawler.selectors.item", ".product-item")
	v.SetDefault("crawler.selectors.title", ".product-title")
	v.SetDefault("crawler.selectors.price", ".product-price")
	v.SetDefault("crawler.selectors.image", "img")
	v.SetDefault("crawler.selectors.image_attr", "src")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.key_prefix", "pricewatch:")
	v.SetDefault("cache.memory.size", 16384)
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.file.path", "products.json")
	v.SetDefault("store.postgres.table", "products")
	v.SetDefault("notify.backend", "console")
	v.SetDefault("notify.webhook.timeout_seconds", 10)
	v.SetDefault("images.backend", "local")
	v.SetDefault("images.dir", ".")
	v.SetDefault("images.timeout_seconds", 30)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.MaxAttempts <= 0 {
		return fmt.Errorf("crawler.max_attempts must be > 0")
	}
	if c.Crawler.RetryDelaySeconds < 0 {
		return fmt.Errorf("crawler.retry_delay_seconds must be >= 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		return fmt.Errorf("auth.token must be set when auth is enabled")
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case "memory", "file":
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn must be set for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store backend: %s", c.Store.Backend)
	}
	switch c.Notify.Backend {
	case "console":
	case "webhook":
		if c.Notify.Webhook.URL == "" {
			return fmt.Errorf("notify.webhook.url must be set for the webhook notifier")
		}
	case "pubsub":
		if c.Notify.PubSub.ProjectID == "" || c.Notify.PubSub.TopicID == "" {
			return fmt.Errorf("notify.pubsub.project_id and topic_id must be set for the pubsub notifier")
		}
	default:
		return fmt.Errorf("unknown notify backend: %s", c.Notify.Backend)
	}
	switch c.Images.Backend {
	case "local":
	case "gcs":
		if c.Images.GCSBucket == "" {
			return fmt.Errorf("images.gcs_bucket must be set for the gcs image sink")
		}
	default:
		return fmt.Errorf("unknown images backend: %s", c.Images.Backend)
	}
	return nil
}

// FetchTimeout converts the crawler timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}

// RetryDelay converts the crawler retry delay into a duration.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.Crawler.RetryDelaySeconds) * time.Second
}
