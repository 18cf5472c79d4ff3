// Package config assembles the portal's runtime configuration from the
// environment. Both binaries call Load, then Validate for the parts they use.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsportal/internal/domain/entity"
	"newsportal/internal/infra/db"
	envconfig "newsportal/pkg/config"
)

// Defaults.
const (
	DefaultHTTPAddr          = ":8080"
	DefaultChannelsFile      = "configs/channels.yaml"
	DefaultIngestParallelism = 4
	DefaultQueryCacheSize    = 512
	DefaultQueryCacheTTL     = 30 * time.Second
	DefaultSearchRateLimit   = 30
	DefaultIngestCron        = "*/15 * * * *"
	DefaultMetricsPort       = 9090
	DefaultRequestTimeout    = 15 * time.Second
	DefaultExcerptLength     = 160
)

// Config is the portal runtime configuration.
type Config struct {
	DatabaseDriver string // postgres, sqlite3 or memory
	DatabaseURL    string
	ChannelsFile   string
	ContentRoot    string
	HTTPAddr       string
	LogLevel       string
	Version        string

	ExcerptLength     int
	IngestParallelism int
	QueryCacheSize    int
	// QueryCacheTTL bounds how long results of ingestion runs in other
	// processes can stay invisible. Zero keeps entries until invalidated.
	QueryCacheTTL time.Duration
	// SearchRateLimit is requests per minute per client IP. Zero disables it.
	SearchRateLimit int
	RequestTimeout  time.Duration
	TrustedProxies  []string

	IngestCron  string
	IngestWatch bool
	MetricsPort int

	JWTSecret string
}

// Load reads the configuration. Values that fail to parse or validate fall
// back to their defaults with a warning; metrics may be nil.
func Load(logger *slog.Logger, metrics *envconfig.ConfigMetrics) *Config {
	f := envconfig.NewFallbacks(logger, metrics)
	positive := func(v int) error { return envconfig.ValidateIntRange(v, 1, 1<<20) }

	cfg := &Config{
		DatabaseDriver: envconfig.GetEnvString("DATABASE_DRIVER", db.DriverPostgres),
		DatabaseURL:    envconfig.GetEnvString("DATABASE_URL", ""),
		ChannelsFile:   envconfig.GetEnvString("CHANNELS_FILE", DefaultChannelsFile),
		ContentRoot:    envconfig.GetEnvString("CONTENT_ROOT", ""),
		HTTPAddr:       envconfig.GetEnvString("HTTP_ADDR", DefaultHTTPAddr),
		LogLevel:       envconfig.GetEnvString("LOG_LEVEL", "info"),
		Version:        envconfig.GetEnvString("APP_VERSION", "dev"),
		IngestWatch:    envconfig.GetEnvBool("INGEST_WATCH", false),
		JWTSecret:      envconfig.GetEnvString("JWT_SECRET", ""),
		TrustedProxies: envconfig.GetEnvStringList("TRUSTED_PROXIES", nil),

		ExcerptLength: envconfig.Observe(f, "excerpt_length",
			envconfig.Load("EXCERPT_LENGTH", DefaultExcerptLength, envconfig.Int, positive)),
		IngestParallelism: envconfig.Observe(f, "ingest_parallelism",
			envconfig.Load("INGEST_PARALLELISM", DefaultIngestParallelism, envconfig.Int,
				func(v int) error { return envconfig.ValidateIntRange(v, 1, 64) })),
		QueryCacheSize: envconfig.Observe(f, "query_cache_size",
			envconfig.Load("QUERY_CACHE_SIZE", DefaultQueryCacheSize, envconfig.Int,
				func(v int) error { return envconfig.ValidateIntRange(v, 0, 1<<20) })),
		QueryCacheTTL: envconfig.Observe(f, "query_cache_ttl",
			envconfig.Load("QUERY_CACHE_TTL", DefaultQueryCacheTTL, envconfig.Duration,
				func(d time.Duration) error { return envconfig.ValidateDurationRange(d, 0, time.Hour) })),
		SearchRateLimit: envconfig.Observe(f, "search_rate_limit",
			envconfig.Load("SEARCH_RATE_LIMIT", DefaultSearchRateLimit, envconfig.Int,
				func(v int) error { return envconfig.ValidateIntRange(v, 0, 100000) })),
		RequestTimeout: envconfig.Observe(f, "request_timeout",
			envconfig.Load("REQUEST_TIMEOUT", DefaultRequestTimeout, envconfig.Duration,
				func(d time.Duration) error {
					return envconfig.ValidateDurationRange(d, time.Second, 5*time.Minute)
				})),
		IngestCron: envconfig.Observe(f, "ingest_cron",
			envconfig.Load("INGEST_CRON", DefaultIngestCron, envconfig.String, envconfig.ValidateCronSchedule)),
		MetricsPort: envconfig.Observe(f, "metrics_port",
			envconfig.Load("METRICS_PORT", DefaultMetricsPort, envconfig.Int,
				func(v int) error { return envconfig.ValidateIntRange(v, 1024, 65535) })),
	}
	f.Done()
	return cfg
}

// Validate checks settings that have no safe default. It returns every
// problem found, each as an *entity.ValidationError.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(field, format string, args ...any) {
		errs = append(errs, &entity.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch c.DatabaseDriver {
	case db.DriverPostgres, db.DriverSQLite:
		if c.DatabaseURL == "" {
			invalid("DATABASE_URL", "required for driver %q", c.DatabaseDriver)
		}
	case db.DriverMemory:
	default:
		invalid("DATABASE_DRIVER", "must be postgres, sqlite3 or memory, got %q", c.DatabaseDriver)
	}
	if c.ChannelsFile == "" {
		invalid("CHANNELS_FILE", "required")
	}
	if err := envconfig.ValidateTrustedProxies(c.TrustedProxies); err != nil {
		invalid("TRUSTED_PROXIES", "%v", err)
	}
	return errors.Join(errs...)
}

// ValidateAdmin checks the settings the admin ingest endpoint needs.
func (c *Config) ValidateAdmin() error {
	if c.JWTSecret == "" {
		return &entity.ValidationError{Field: "JWT_SECRET", Message: "required to enable admin endpoints"}
	}
	if len(c.JWTSecret) < 32 {
		return &entity.ValidationError{Field: "JWT_SECRET", Message: "must be at least 32 characters"}
	}
	return nil
}

// ValidateWorker checks the settings the ingestion worker needs.
func (c *Config) ValidateWorker() error {
	if c.ContentRoot == "" {
		return &entity.ValidationError{Field: "CONTENT_ROOT", Message: "required by the worker"}
	}
	return nil
}

// UsesSQL reports whether the configured store is backed by database/sql.
func (c *Config) UsesSQL() bool {
	return c.DatabaseDriver != db.DriverMemory
}
