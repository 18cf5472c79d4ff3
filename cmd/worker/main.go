// Command worker keeps the article store in sync with the content tree: it
// ingests every channel on startup, then on a cron schedule and, when
// enabled, whenever files under the content root change.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"newsportal/internal/channel"
	"newsportal/internal/config"
	"newsportal/internal/infra/source"
	"newsportal/internal/infra/store"
	workerPkg "newsportal/internal/infra/worker"
	"newsportal/internal/observability/logging"
	ingestUC "newsportal/internal/usecase/ingest"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("worker exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	metrics := workerPkg.NewMetrics(prometheus.DefaultRegisterer)

	cfg := config.Load(logger, metrics.ConfigMetrics)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateWorker(); err != nil {
		return err
	}

	wcfg := workerPkg.LoadConfig(cfg, logger, metrics)
	if err := wcfg.Validate(); err != nil {
		return fmt.Errorf("worker config: %w", err)
	}
	logger.Info("worker configuration loaded",
		slog.String("schedule", wcfg.Schedule),
		slog.String("timezone", wcfg.Timezone),
		slog.Duration("run_timeout", wcfg.RunTimeout),
		slog.Bool("watch", wcfg.Watch),
		slog.String("content_root", wcfg.ContentRoot),
		slog.Int("port", wcfg.Port))

	channels, err := channel.Load(cfg.ChannelsFile)
	if err != nil {
		return err
	}

	// The worker may start before the api and is allowed to create the schema.
	st, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, true, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	if !cfg.UsesSQL() {
		logger.Warn("worker writes to its own in-memory store, the api will not see these articles")
	}

	ingestCfg := ingestUC.DefaultConfig()
	ingestCfg.Parallelism = cfg.IngestParallelism
	ingestCfg.ExcerptLength = cfg.ExcerptLength
	svc := ingestUC.NewService(channels, st.Repo, ingestCfg, ingestUC.WithLogger(logger))
	runner := workerPkg.NewRunner(svc, wcfg, metrics, logger)

	health := workerPkg.NewHealthServer(fmt.Sprintf(":%d", wcfg.Port), prometheus.DefaultGatherer, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := health.Start(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := runner.RunAll(gctx, workerPkg.TriggerStartup); err != nil {
		logger.Warn("startup ingest failed", slog.Any("error", err))
	}

	scheduler, err := runner.Schedule(gctx)
	if err != nil {
		return err
	}
	scheduler.Start()
	logger.Info("ingest schedule started", slog.String("schedule", wcfg.Schedule))

	if wcfg.Watch {
		watcher := source.NewWatcher(wcfg.ContentRoot, wcfg.WatchDebounce, logger)
		g.Go(func() error {
			return watcher.Run(gctx, runner.HandleChanges)
		})
	}

	health.SetReady(true)
	<-gctx.Done()
	health.SetReady(false)

	logger.Info("shutting down worker...")
	<-scheduler.Stop().Done()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("worker stopped")
	return nil
}
