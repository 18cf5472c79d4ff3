// Command api serves the news portal: channel metadata, article queries for
// every channel and the admin ingest endpoint.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"newsportal/internal/channel"
	"newsportal/internal/common/pagination"
	"newsportal/internal/config"
	hhttp "newsportal/internal/handler/http"
	"newsportal/internal/handler/http/admin"
	articleHandler "newsportal/internal/handler/http/article"
	"newsportal/internal/handler/http/auth"
	channelHandler "newsportal/internal/handler/http/channel"
	"newsportal/internal/handler/http/middleware"
	"newsportal/internal/handler/http/requestid"
	"newsportal/internal/handler/http/respond"
	"newsportal/internal/infra/store"
	"newsportal/internal/observability/logging"
	"newsportal/internal/observability/metrics"
	"newsportal/internal/observability/tracing"
	artUC "newsportal/internal/usecase/article"
	ingestUC "newsportal/internal/usecase/ingest"
	envconfig "newsportal/pkg/config"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("api exited with error", slog.String("error", respond.SanitizeError(err)))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg := config.Load(logger, envconfig.NewConfigMetrics("api", prometheus.DefaultRegisterer))
	if err := cfg.Validate(); err != nil {
		return err
	}

	_, shutdownTracer := tracing.InitTracer(float64(envconfig.GetEnvInt("TRACE_SAMPLE_PERCENT", 10)) / 100)
	defer func() { _ = shutdownTracer(context.Background()) }()

	channels, err := channel.Load(cfg.ChannelsFile)
	if err != nil {
		return err
	}
	logger.Info("channels loaded", slog.Int("count", channels.Len()), slog.Any("ids", channels.IDs()))

	st, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, true, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	if st.DB != nil {
		go metrics.ReportDBStats(ctx, st.DB.Stats, 15*time.Second)
	}

	handler, err := setupHandler(cfg, channels, st, logger)
	if err != nil {
		return err
	}
	return serve(ctx, cfg, handler, logger)
}

// setupHandler wires the use cases and routes and wraps them in the
// middleware chain.
func setupHandler(cfg *config.Config, channels *channel.Registry, st *store.Store, logger *slog.Logger) (http.Handler, error) {
	var cache *artUC.Cache
	ingestOpts := []ingestUC.Option{ingestUC.WithLogger(logger)}
	if cfg.QueryCacheSize > 0 {
		c, err := artUC.NewCacheWithTTL(cfg.QueryCacheSize, cfg.QueryCacheTTL)
		if err != nil {
			return nil, err
		}
		cache = c
		ingestOpts = append(ingestOpts, ingestUC.WithInvalidator(cache))
	}
	articles := artUC.NewService(channels, st.Repo, cache)

	extractor, err := middleware.NewIPExtractor(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	var searchLimiter *middleware.RateLimiter
	if cfg.SearchRateLimit > 0 {
		searchLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Name:      "search",
			PerMinute: cfg.SearchRateLimit,
		}, extractor)
	}

	var adminGuard func(http.Handler) http.Handler
	if err := cfg.ValidateAdmin(); err != nil {
		logger.Warn("admin endpoints disabled", slog.String("reason", err.Error()))
	} else {
		adminGuard = auth.RequireRole([]byte(cfg.JWTSecret), auth.RoleAdmin)
	}

	mux := http.NewServeMux()
	channelHandler.Register(mux, channels)
	articleHandler.Register(mux, articleHandler.Deps{
		Svc:           articles,
		Hosts:         channels,
		Pagination:    pagination.LoadFromEnv(),
		SearchLimiter: searchLimiter,
		DraftGuard:    adminGuard,
	})
	health := &hhttp.HealthHandler{
		Store:    st.Pinger(),
		Channels: channels,
		Version:  cfg.Version,
	}
	if st.DB != nil {
		health.Stats = st.DB
	}
	hhttp.RegisterHealthRoutes(mux, health)

	if adminGuard != nil {
		ingestCfg := ingestUC.DefaultConfig()
		ingestCfg.Parallelism = cfg.IngestParallelism
		ingestCfg.ExcerptLength = cfg.ExcerptLength
		admin.Register(mux, admin.IngestHandler{
			Svc:         ingestUC.NewService(channels, st.Repo, ingestCfg, ingestOpts...),
			Channels:    channels,
			ContentRoot: cfg.ContentRoot,
		}, adminGuard)
		logger.Info("admin endpoints enabled")
	}

	return hhttp.Chain(hhttp.MetricsMiddleware(mux),
		requestid.Middleware,
		middleware.SecurityHeaders(middleware.APIPolicy),
		tracing.Middleware,
		hhttp.Logging(logger),
		hhttp.InputValidation(hhttp.DefaultMaxBodyBytes),
		hhttp.Timeout(cfg.RequestTimeout),
		hhttp.Recover(logger),
	), nil
}

// serve runs the HTTP server until ctx is canceled, then drains it.
func serve(ctx context.Context, cfg *config.Config, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.HTTPAddr),
			slog.String("version", cfg.Version),
			slog.String("driver", cfg.DatabaseDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
