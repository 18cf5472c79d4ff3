// Package worker runs content ingestion outside the API process: on a cron
// schedule and, optionally, whenever the content tree changes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"newsportal/internal/handler/http/respond"
	"newsportal/internal/usecase/ingest"
)

// Run statuses recorded in metrics.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// Run triggers.
const (
	TriggerSchedule = "schedule"
	TriggerWatch    = "watch"
	TriggerStartup  = "startup"
)

// Ingester is the part of the ingestion service the worker drives.
type Ingester interface {
	IngestAll(ctx context.Context, root string) ([]*ingest.Report, error)
	IngestDir(ctx context.Context, channelID, dir string) (*ingest.Report, error)
}

// Runner executes ingestion runs. At most one run is active. A scheduled
// trigger that fires during a run is skipped; watch triggers are handed back
// through HandleChanges so the watcher retries them.
type Runner struct {
	svc     Ingester
	cfg     Config
	metrics *Metrics
	logger  *slog.Logger
	running sync.Mutex
}

// NewRunner creates a Runner. metrics may be nil.
func NewRunner(svc Ingester, cfg Config, metrics *Metrics, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{svc: svc, cfg: cfg, metrics: metrics, logger: logger}
}

// RunAll ingests every channel directory under the content root.
func (r *Runner) RunAll(ctx context.Context, trigger string) error {
	return r.run(ctx, trigger, func(ctx context.Context) ([]*ingest.Report, error) {
		return r.svc.IngestAll(ctx, r.cfg.ContentRoot)
	})
}

// RunChannels ingests the named channels only.
func (r *Runner) RunChannels(ctx context.Context, trigger string, channelIDs []string) error {
	return r.run(ctx, trigger, func(ctx context.Context) ([]*ingest.Report, error) {
		var (
			reports []*ingest.Report
			errs    []error
		)
		for _, id := range channelIDs {
			report, err := r.svc.IngestDir(ctx, id, filepath.Join(r.cfg.ContentRoot, id))
			if report != nil {
				reports = append(reports, report)
			}
			if err != nil {
				errs = append(errs, err)
			}
		}
		return reports, errors.Join(errs...)
	})
}

// HandleChanges ingests channels reported by the content watcher. It reports
// false when another run is active, so the watcher can deliver the ids again
// once that run is over. Other failures are logged and count as handled.
func (r *Runner) HandleChanges(ctx context.Context, channelIDs []string) bool {
	err := r.RunChannels(ctx, TriggerWatch, channelIDs)
	switch {
	case errors.Is(err, ErrRunInProgress):
		return false
	case err != nil:
		r.logger.Warn("watch ingest failed",
			slog.Any("channels", channelIDs),
			slog.String("error", respond.SanitizeError(err)))
	}
	return true
}

// ErrRunInProgress is returned when a trigger fires during another run.
var ErrRunInProgress = errors.New("ingestion run already in progress")

func (r *Runner) run(ctx context.Context, trigger string, fn func(context.Context) ([]*ingest.Report, error)) error {
	if !r.running.TryLock() {
		r.logger.Info("ingestion run skipped, previous run still active", slog.String("trigger", trigger))
		r.record(trigger, StatusSkipped, 0, 0)
		return ErrRunInProgress
	}
	defer r.running.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.RunTimeout)
	defer cancel()

	start := time.Now()
	r.logger.Info("ingestion run started", slog.String("trigger", trigger))
	reports, err := fn(ctx)
	duration := time.Since(start)

	written := 0
	for _, rep := range reports {
		written += rep.Written()
	}
	if err != nil {
		r.logger.Error("ingestion run failed",
			slog.String("trigger", trigger),
			slog.Int("channels", len(reports)),
			slog.Int("written", written),
			slog.String("error", respond.SanitizeError(err)))
		r.record(trigger, StatusFailure, duration, written)
		return fmt.Errorf("ingestion run: %w", err)
	}
	r.logger.Info("ingestion run completed",
		slog.String("trigger", trigger),
		slog.Int("channels", len(reports)),
		slog.Int("written", written),
		slog.Duration("duration", duration))
	r.record(trigger, StatusSuccess, duration, written)
	return nil
}

func (r *Runner) record(trigger, status string, d time.Duration, written int) {
	if r.metrics != nil {
		r.metrics.RecordRun(trigger, status, d, written)
	}
}

// Schedule registers RunAll on the configured cron schedule. The caller
// starts and stops the returned scheduler.
func (r *Runner) Schedule(ctx context.Context) (*cron.Cron, error) {
	loc, err := time.LoadLocation(r.cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(
		cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)))
	if _, err := c.AddFunc(r.cfg.Schedule, func() {
		_ = r.RunAll(ctx, TriggerSchedule)
	}); err != nil {
		return nil, fmt.Errorf("add ingest job: %w", err)
	}
	return c, nil
}
