package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/reviewmod/pkg/config"
	"github.com/utafrali/reviewmod/pkg/database"
	"github.com/utafrali/reviewmod/pkg/tracing"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Product lookup sources.
const (
	ProductLookupStore   = "store"
	ProductLookupCatalog = "catalog"
)

// Config holds all configuration for the review service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"REVIEW_HTTP_PORT" envDefault:"8010"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	WriteRPS           float64  `env:"REVIEW_WRITE_RPS" envDefault:"1"`
	WriteBurst         int      `env:"REVIEW_WRITE_BURST" envDefault:"5"`
	JWTSecret          string   `env:"JWT_SECRET"`

	// Store
	StoreBackend  string `env:"STORE_BACKEND" envDefault:"postgres"`
	// StoreFixtures is the JSON file of users and products the memory
	// backend starts with.
	StoreFixtures string `env:"STORE_FIXTURES_FILE"`

	// PostgreSQL
	PostgresHost        string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort        int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser        string        `env:"POSTGRES_USER" envDefault:"reviewmod"`
	PostgresPass        string        `env:"POSTGRES_PASSWORD" envDefault:"reviewmod_secret"`
	PostgresDB          string        `env:"REVIEW_DB_NAME" envDefault:"reviewmod"`
	PostgresSSL         string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns    int32         `env:"POSTGRES_MAX_CONNS" envDefault:"20"`
	PostgresMinConns    int32         `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	PostgresMaxConnLife time.Duration `env:"POSTGRES_MAX_CONN_LIFETIME" envDefault:"1h"`
	PostgresMaxConnIdle time.Duration `env:"POSTGRES_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	SlowQueryMS         int           `env:"LOG_SLOW_QUERY_MS" envDefault:"200"`

	// Product lookup
	ProductLookup          string `env:"PRODUCT_LOOKUP" envDefault:"store"`
	CatalogServiceURL      string `env:"CATALOG_SERVICE_URL" envDefault:"http://localhost:8001"`
	ProductCacheTTLSeconds int    `env:"PRODUCT_CACHE_TTL_SECONDS" envDefault:"300"`

	// Redis
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisTimeoutMS int    `env:"REDIS_TIMEOUT_MS" envDefault:"200"`

	// Kafka
	EventsEnabled bool     `env:"EVENTS_ENABLED" envDefault:"true"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load review config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.WriteRPS < 0 || c.WriteBurst < 0 {
		return fmt.Errorf("REVIEW_WRITE_RPS and REVIEW_WRITE_BURST must not be negative")
	}

	switch c.StoreBackend {
	case BackendPostgres:
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			return fmt.Errorf("invalid POSTGRES_PORT: %d", c.PostgresPort)
		}
		if c.PostgresMinConns > c.PostgresMaxConns {
			return fmt.Errorf("POSTGRES_MIN_CONNS (%d) exceeds POSTGRES_MAX_CONNS (%d)", c.PostgresMinConns, c.PostgresMaxConns)
		}
	case BackendMemory:
		if c.StoreFixtures == "" {
			return fmt.Errorf("STORE_FIXTURES_FILE is required when STORE_BACKEND=%s", BackendMemory)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMemory, c.StoreBackend)
	}

	switch c.ProductLookup {
	case ProductLookupStore:
	case ProductLookupCatalog:
		if c.CatalogServiceURL == "" {
			return fmt.Errorf("CATALOG_SERVICE_URL is required when PRODUCT_LOOKUP=%s", ProductLookupCatalog)
		}
		if c.ProductCacheTTLSeconds < 0 {
			return fmt.Errorf("PRODUCT_CACHE_TTL_SECONDS must not be negative")
		}
	default:
		return fmt.Errorf("PRODUCT_LOOKUP must be %q or %q, got %q", ProductLookupStore, ProductLookupCatalog, c.ProductLookup)
	}

	if c.EventsEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_ENABLED=true")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	return nil
}

// Postgres returns the pool configuration for database.NewPostgresPool.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        c.PostgresMinConns,
		MaxConnLifetime: c.PostgresMaxConnLife,
		MaxConnIdleTime: c.PostgresMaxConnIdle,
	}
}

// Redis returns the product cache connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Addr:      c.RedisAddr,
		Password:  c.RedisPassword,
		DB:        c.RedisDB,
		OpTimeout: time.Duration(c.RedisTimeoutMS) * time.Millisecond,
	}
}

// ProductCacheTTL returns the product cache entry lifetime.
func (c *Config) ProductCacheTTL() time.Duration {
	return time.Duration(c.ProductCacheTTLSeconds) * time.Second
}

// SlowQueryThreshold returns the duration above which queries are logged.
// Zero disables slow query logging.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryMS) * time.Millisecond
}

// Tracing returns the tracer provider configuration.
func (c *Config) Tracing(serviceName, version string) tracing.Config {
	return tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTELEndpoint,
		SampleRate:     c.OTELSampleRate,
		Enabled:        c.OTELEnabled,
	}
}
