package config

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsportal/internal/domain/entity"
	envconfig "newsportal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DATABASE_DRIVER", "DATABASE_URL", "CHANNELS_FILE", "CONTENT_ROOT",
		"HTTP_ADDR", "EXCERPT_LENGTH", "INGEST_PARALLELISM", "QUERY_CACHE_SIZE",
		"SEARCH_RATE_LIMIT", "INGEST_CRON", "INGEST_WATCH", "JWT_SECRET", "METRICS_PORT",
		"TRUSTED_PROXIES", "REQUEST_TIMEOUT", "QUERY_CACHE_TTL"} {
		t.Setenv(k, "")
	}

	cfg := Load(nil, nil)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, DefaultChannelsFile, cfg.ChannelsFile)
	assert.Equal(t, DefaultExcerptLength, cfg.ExcerptLength)
	assert.Equal(t, DefaultIngestParallelism, cfg.IngestParallelism)
	assert.Equal(t, DefaultQueryCacheSize, cfg.QueryCacheSize)
	assert.Equal(t, DefaultQueryCacheTTL, cfg.QueryCacheTTL)
	assert.Equal(t, DefaultSearchRateLimit, cfg.SearchRateLimit)
	assert.Equal(t, DefaultIngestCron, cfg.IngestCron)
	assert.Equal(t, DefaultMetricsPort, cfg.MetricsPort)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.False(t, cfg.IngestWatch)
	assert.True(t, cfg.UsesSQL())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "/var/lib/portal/news.db")
	t.Setenv("CONTENT_ROOT", "/srv/content")
	t.Setenv("EXCERPT_LENGTH", "200")
	t.Setenv("INGEST_PARALLELISM", "8")
	t.Setenv("SEARCH_RATE_LIMIT", "0")
	t.Setenv("INGEST_CRON", "@hourly")
	t.Setenv("INGEST_WATCH", "true")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")
	t.Setenv("REQUEST_TIMEOUT", "30s")

	cfg := Load(nil, nil)
	assert.Equal(t, "sqlite3", cfg.DatabaseDriver)
	assert.Equal(t, "/srv/content", cfg.ContentRoot)
	assert.Equal(t, 200, cfg.ExcerptLength)
	assert.Equal(t, 8, cfg.IngestParallelism)
	assert.Equal(t, 0, cfg.SearchRateLimit)
	assert.Equal(t, "@hourly", cfg.IngestCron)
	assert.True(t, cfg.IngestWatch)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.ValidateWorker())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("INGEST_PARALLELISM", "1000")
	t.Setenv("INGEST_CRON", "whenever")
	t.Setenv("METRICS_PORT", "80")
	t.Setenv("EXCERPT_LENGTH", "many")

	m := envconfig.NewConfigMetrics("portal_test", prometheus.NewRegistry())
	cfg := Load(nil, m)

	assert.Equal(t, DefaultIngestParallelism, cfg.IngestParallelism)
	assert.Equal(t, DefaultIngestCron, cfg.IngestCron)
	assert.Equal(t, DefaultMetricsPort, cfg.MetricsPort)
	assert.Equal(t, DefaultExcerptLength, cfg.ExcerptLength)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("ingest_cron")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		fields []string
	}{
		{"memory store", Config{DatabaseDriver: "memory", ChannelsFile: "c.yaml"}, nil},
		{"postgres without url", Config{DatabaseDriver: "postgres", ChannelsFile: "c.yaml"}, []string{"DATABASE_URL"}},
		{"unknown driver", Config{DatabaseDriver: "mysql", ChannelsFile: "c.yaml"}, []string{"DATABASE_DRIVER"}},
		{
			"several problems",
			Config{DatabaseDriver: "sqlite3", TrustedProxies: []string{"lb.internal"}},
			[]string{"DATABASE_URL", "CHANNELS_FILE", "TRUSTED_PROXIES"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.fields == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, entity.ErrValidationFailed)
			for _, field := range tt.fields {
				assert.Contains(t, err.Error(), field)
			}
		})
	}
}

func TestValidateAdmin(t *testing.T) {
	var verr *entity.ValidationError

	err := (&Config{}).ValidateAdmin()
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "JWT_SECRET", verr.Field)

	assert.Error(t, (&Config{JWTSecret: "short"}).ValidateAdmin())
	assert.NoError(t, (&Config{JWTSecret: "0123456789abcdef0123456789abcdef"}).ValidateAdmin())
}

func TestValidateWorker(t *testing.T) {
	assert.ErrorIs(t, (&Config{}).ValidateWorker(), entity.ErrValidationFailed)
	assert.False(t, (&Config{DatabaseDriver: "memory"}).UsesSQL())
}
