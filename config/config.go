// Package config loads the service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/fairway-collective/roundsync/internal/identity"
	"github.com/fairway-collective/roundsync/internal/observability"
	"github.com/fairway-collective/roundsync/internal/relay"
)

// Config holds the full service configuration.
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Redis         RedisConfig         `yaml:"redis"`
	Relay         RelayConfig         `yaml:"relay"`
	Identity      IdentityConfig      `yaml:"identity"`
	HTTP          HTTPConfig          `yaml:"http"`
	Queue         QueueConfig         `yaml:"queue"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_URL"`
}

// NATSConfig holds NATS configuration. When disabled the service runs on the
// in-process bus.
type NATSConfig struct {
	Enabled  bool   `yaml:"enabled" env:"NATS_ENABLED"`
	URL      string `yaml:"url" env:"NATS_URL"`
	NKeySeed string `yaml:"nkey_seed" env:"NATS_NKEY_SEED"`
}

// RedisConfig holds the optional remote-event cache configuration.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED"`
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	EventTTL time.Duration `yaml:"event_ttl" env:"REDIS_EVENT_TTL"`
}

// RelayConfig holds the relay set and query limits.
type RelayConfig struct {
	URLs              []string      `yaml:"urls" env:"RELAY_URLS" envSeparator:","`
	CourseAuthors     []string      `yaml:"course_authors" env:"RELAY_COURSE_AUTHORS" envSeparator:","`
	QueryTimeout      time.Duration `yaml:"query_timeout" env:"RELAY_QUERY_TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"RELAY_REQUESTS_PER_SECOND"`
	Burst             int           `yaml:"burst" env:"RELAY_BURST"`
}

// IdentityConfig holds the local user's keys. PubKey accepts hex or npub;
// SecretKey accepts hex or nsec and is only needed for creating rounds.
type IdentityConfig struct {
	PubKey    string `yaml:"pubkey" env:"IDENTITY_PUBKEY"`
	SecretKey string `yaml:"secret_key" env:"IDENTITY_SECRET_KEY"`
}

// HTTPConfig holds the API server configuration.
type HTTPConfig struct {
	Addr               string   `yaml:"addr" env:"HTTP_ADDR"`
	JWTSecret          string   `yaml:"jwt_secret" env:"JWT_SECRET"`
	AuthEnabled        bool     `yaml:"auth_enabled" env:"HTTP_AUTH_ENABLED"`
	AllowedOrigins     []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`
	RateLimitPerSecond float64  `yaml:"rate_limit_per_second" env:"HTTP_RATE_LIMIT_PER_SECOND"`
	RateLimitBurst     int      `yaml:"rate_limit_burst" env:"HTTP_RATE_LIMIT_BURST"`
}

// QueueConfig holds the background course refresh configuration.
type QueueConfig struct {
	Enabled         bool          `yaml:"enabled" env:"QUEUE_ENABLED"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"QUEUE_REFRESH_INTERVAL"`
}

// ObservabilityConfig holds logging and metrics configuration.
type ObservabilityConfig struct {
	Environment    string `yaml:"environment" env:"ENV"`
	LogLevel       string `yaml:"log_level" env:"LOG_LEVEL"`
	MetricsAddress string `yaml:"metrics_address" env:"METRICS_ADDRESS"`
}

// LoadConfig reads the YAML file, overlays environment variables, applies
// defaults, and validates. A missing file falls back to pure environment
// configuration.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.RateLimitPerSecond <= 0 {
		c.HTTP.RateLimitPerSecond = 10
	}
	if c.HTTP.RateLimitBurst <= 0 {
		c.HTTP.RateLimitBurst = 20
	}
	if c.Relay.QueryTimeout <= 0 {
		c.Relay.QueryTimeout = 10 * time.Second
	}
	if c.Relay.RequestsPerSecond <= 0 {
		c.Relay.RequestsPerSecond = 5
	}
	if c.Relay.Burst <= 0 {
		c.Relay.Burst = 10
	}
	if c.Redis.EventTTL <= 0 {
		c.Redis.EventTTL = 24 * time.Hour
	}
	if c.Queue.RefreshInterval <= 0 {
		c.Queue.RefreshInterval = 30 * time.Minute
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = "development"
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return errors.New("config: postgres.dsn (or DATABASE_URL) is required")
	}
	if len(c.Relay.URLs) == 0 {
		return errors.New("config: relay.urls (or RELAY_URLS) is required")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return errors.New("config: nats.url is required when nats is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("config: redis.addr is required when redis is enabled")
	}
	if c.Identity.PubKey == "" && c.Identity.SecretKey == "" {
		return errors.New("config: identity.pubkey or identity.secret_key is required")
	}
	if c.HTTP.AuthEnabled && c.HTTP.JWTSecret == "" {
		return errors.New("config: http.jwt_secret is required when auth is enabled")
	}
	return nil
}

// ToRelayConfig maps the relay section onto the relay adapter's config.
func ToRelayConfig(appCfg *Config) relay.Config {
	return relay.Config{
		URLs:              appCfg.Relay.URLs,
		CourseAuthors:     appCfg.Relay.CourseAuthors,
		QueryTimeout:      appCfg.Relay.QueryTimeout,
		RequestsPerSecond: appCfg.Relay.RequestsPerSecond,
		Burst:             appCfg.Relay.Burst,
	}
}

// ToIdentityConfig maps the identity section onto the identity provider's
// config.
func ToIdentityConfig(appCfg *Config) identity.Config {
	return identity.Config{
		PubKey:    appCfg.Identity.PubKey,
		SecretKey: appCfg.Identity.SecretKey,
	}
}

// ToObsConfig maps the observability section onto the observability config.
func ToObsConfig(appCfg *Config) observability.Config {
	return observability.Config{
		ServiceName: "roundsync",
		Environment: appCfg.Observability.Environment,
		LogLevel:    appCfg.Observability.LogLevel,
	}
}
