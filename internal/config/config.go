package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/kumaruseru/owls/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// Backend API
	BackendBaseURL        string        `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8000/api"`
	BackendTimeout        time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`
	BackendMaxRetries     int           `env:"BACKEND_MAX_RETRIES" envDefault:"2"`
	CircuitBreakerEnabled bool          `env:"CIRCUIT_BREAKER_ENABLED" envDefault:"true"`

	// Redis session snapshots
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Snapshot TTLs. Auth follows the refresh token lifetime; the cart
	// snapshot is only a display cache and expires sooner.
	AuthSnapshotTTL time.Duration `env:"AUTH_SNAPSHOT_TTL" envDefault:"168h"`
	CartSnapshotTTL time.Duration `env:"CART_SNAPSHOT_TTL" envDefault:"24h"`

	// Kafka. An empty broker list disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"" envSeparator:","`

	// Cookies
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"true"`
	CookieDomain string        `env:"COOKIE_DOMAIN" envDefault:""`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	AccessTTL    time.Duration `env:"ACCESS_COOKIE_TTL" envDefault:"1h"`
	RefreshTTL   time.Duration `env:"REFRESH_COOKIE_TTL" envDefault:"168h"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Rate limiting. RPS of 0 disables it.
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// Catalog Cache-Control max-age in seconds.
	CatalogCacheMaxAge int `env:"CATALOG_CACHE_MAX_AGE" envDefault:"300"`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string  `env:"TRACING_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSample   float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := pkgconfig.Load[Config]()
	if err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	u, err := url.Parse(c.BackendBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base URL: %q", c.BackendBaseURL)
	}

	if c.AuthSnapshotTTL <= 0 || c.CartSnapshotTTL <= 0 {
		return fmt.Errorf("snapshot TTLs must be positive")
	}

	return nil
}

// KafkaEnabled reports whether event publishing is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaBrokers[0] != ""
}
