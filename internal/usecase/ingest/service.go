package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"newsportal/internal/content/frontmatter"
	"newsportal/internal/content/sanitize"
	"newsportal/internal/content/slug"
	"newsportal/internal/domain/entity"
	"newsportal/internal/infra/source"
	"newsportal/internal/observability/logging"
	"newsportal/internal/observability/metrics"
	"newsportal/internal/observability/tracing"
	"newsportal/internal/repository"
	"newsportal/internal/resilience/retry"
)

// ChannelResolver looks up configured channels. *channel.Registry implements it.
type ChannelResolver interface {
	Resolve(identifier string) (entity.Channel, error)
	List() []entity.Channel
}

// Invalidator drops cached query results of a channel after its content changed.
type Invalidator interface {
	Invalidate(channelID string)
}

// Config holds tunables of the ingestion pipeline.
type Config struct {
	Parallelism   int          // Maximum number of items parsed concurrently
	ExcerptLength int          // Characters kept for derived excerpts
	Retry         retry.Policy // Backoff for store reads and writes
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		Parallelism:   4,
		ExcerptLength: frontmatter.DefaultExcerptLength,
		Retry:         retry.Store(),
	}
}

// Service provides the content ingestion use case.
type Service struct {
	channels    ChannelResolver
	repo        repository.ArticleRepository
	sanitizer   *sanitize.Sanitizer
	invalidator Invalidator
	cfg         Config
	now         func() time.Time
	logger      *slog.Logger

	keys *keyedMutex // one writer per (channel, slug)
	runs *keyedMutex // one run per channel
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithInvalidator registers the query cache to bump after each run.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates an ingestion Service. Non-positive config values fall
// back to DefaultConfig.
func NewService(channels ChannelResolver, repo repository.ArticleRepository, cfg Config, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = def.Parallelism
	}
	if cfg.ExcerptLength <= 0 {
		cfg.ExcerptLength = def.ExcerptLength
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = def.Retry
	}
	s := &Service{
		channels:  channels,
		repo:      repo,
		sanitizer: sanitize.New(),
		cfg:       cfg,
		now:       time.Now,
		logger:    slog.Default(),
		keys:      newKeyedMutex(),
		runs:      newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// parsed is the outcome of the parse phase for one item.
type parsed struct {
	item       entity.SourceItem
	article    *entity.Article
	badDate    string
	reasons    []string
	unreadable error
}

// Ingest loads one batch of source items into a channel.
//
// Items are processed in lexicographic order of Name. When several items
// resolve to the same slug the last one wins and the others are reported as
// conflicts. A store outage aborts the run; the returned report then holds
// the items handled so far and the error matches entity.ErrStoreUnavailable.
func (s *Service) Ingest(ctx context.Context, channelID string, items []entity.SourceItem) (report *Report, err error) {
	ch, err := s.channels.Resolve(channelID)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	logger := logging.WithChannel(s.logger, ch.ID)

	ctx, span := tracing.StartSpan(ctx, "ingest.run",
		attribute.String("channel", ch.ID),
		attribute.Int("items", len(items)))
	defer func() { tracing.EndSpan(span, err) }()

	unlock, err := s.runs.Lock(ctx, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: wait for running ingestion: %w", ch.ID, err)
	}
	defer unlock()

	start := time.Now()
	now := s.now().UTC()
	report = &Report{ChannelID: ch.ID, Items: make([]ItemResult, 0, len(items))}
	defer func() {
		report.Duration = time.Since(start)
		s.finish(ctx, logger, report, err)
	}()

	sorted := make([]entity.SourceItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	results, err := s.parseAll(ctx, ch.ID, sorted)
	if err != nil {
		return report, fmt.Errorf("ingest %s: %w", ch.ID, err)
	}
	winners := resolveCollisions(results)

	for i, p := range results {
		switch {
		case p.unreadable != nil:
			report.add(ItemResult{Name: p.item.Name, Outcome: OutcomeUnreadable, Reason: p.unreadable.Error()})
			continue
		case winners[p.article.Slug] != i:
			winner := results[winners[p.article.Slug]].item.Name
			logger.Warn("slug conflict in batch, later source wins",
				slog.String("slug", p.article.Slug),
				slog.String("source", p.item.Name),
				slog.String("winner", winner))
			report.add(ItemResult{
				Name:    p.item.Name,
				Slug:    p.article.Slug,
				Outcome: OutcomeConflict,
				Reason:  fmt.Sprintf("slug %q also produced by %s", p.article.Slug, winner),
				Winner:  winner,
			})
			continue
		}

		res, storeErr := s.store(ctx, p, now)
		if storeErr != nil {
			if errors.Is(storeErr, entity.ErrStoreUnavailable) || ctx.Err() != nil {
				report.Aborted = true
				return report, fmt.Errorf("ingest %s: store %s: %w", ch.ID, p.article.Slug, storeErr)
			}
			logger.Error("failed to store article",
				slog.String("source", p.item.Name),
				slog.String("slug", p.article.Slug),
				slog.Any("error", storeErr))
			report.add(ItemResult{Name: p.item.Name, Slug: p.article.Slug, Outcome: OutcomeFailed, Reason: storeErr.Error()})
			continue
		}
		if res.Outcome == OutcomeDegraded {
			logger.Warn("article ingested with degraded metadata",
				slog.String("source", p.item.Name),
				slog.String("slug", res.Slug),
				slog.String("reason", res.Reason))
		}
		report.add(res)
	}
	return report, nil
}

// parseAll runs the parse phase concurrently, keeping results in input order.
func (s *Service) parseAll(ctx context.Context, channelID string, items []entity.SourceItem) ([]parsed, error) {
	results := make([]parsed, len(items))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.Parallelism)
	for i := range items {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[i] = s.parse(channelID, items[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	return results, nil
}

// parse converts one source item into an article. It never fails; problems
// are recorded as degradation reasons.
func (s *Service) parse(channelID string, item entity.SourceItem) parsed {
	p := parsed{item: item}
	if item.Err != nil {
		p.unreadable = item.Err
		return p
	}

	doc := frontmatter.Parse(item.Raw)
	if doc.Degraded {
		p.reasons = append(p.reasons, "unterminated frontmatter block")
	}

	res := slug.Resolve(item.Name, doc.Get("slug"), frontmatter.List(doc.Get("aliases")))
	if res.Fallback {
		p.reasons = append(p.reasons, "no usable slug, using "+res.Slug)
	}

	a := &entity.Article{
		ChannelID:  channelID,
		Slug:       res.Slug,
		Aliases:    res.Aliases,
		Title:      doc.Title(),
		Content:    s.sanitizer.HTML(doc.Body),
		Excerpt:    doc.Excerpt(s.cfg.ExcerptLength),
		Author:     doc.Get("author"),
		Category:   doc.Get("category"),
		Tags:       frontmatter.List(doc.Get("tags")),
		Image:      doc.Get("image"),
		ImageAlt:   doc.Get("image_alt"),
		Featured:   frontmatter.Bool(doc.Get("featured")),
		Status:     entity.ParseStatus(doc.Get("status")),
		SourceName: item.Name,
	}
	if raw := doc.Get("date"); raw != "" {
		if t, ok := frontmatter.Time(raw); ok {
			a.PublishedAt = t
		} else {
			p.badDate = raw
			p.reasons = append(p.reasons, fmt.Sprintf("unparseable date %q", raw))
		}
	}
	p.article = a
	return p
}

// resolveCollisions maps each slug to the index of the item that keeps it.
// Items are sorted, so the last index is the lexicographically last name.
func resolveCollisions(results []parsed) map[string]int {
	winners := make(map[string]int, len(results))
	for i, p := range results {
		if p.unreadable != nil {
			continue
		}
		winners[p.article.Slug] = i
	}
	return winners
}

// store writes one article under its key lock.
func (s *Service) store(ctx context.Context, p parsed, now time.Time) (ItemResult, error) {
	a := p.article
	res := ItemResult{Name: p.item.Name, Slug: a.Slug}

	unlock, err := s.keys.Lock(ctx, a.Key().String())
	if err != nil {
		return res, err
	}
	defer unlock()

	if a.PublishedAt.IsZero() {
		prev, err := retry.Do(ctx, s.cfg.Retry, func(ctx context.Context) (*entity.Article, error) {
			return s.repo.Get(ctx, a.ChannelID, a.Slug)
		})
		if err != nil {
			return res, fmt.Errorf("load previous article: %w", err)
		}
		a.PublishedAt = now
		if prev != nil && !prev.PublishedAt.IsZero() {
			a.PublishedAt = prev.PublishedAt
		}
	}
	a.UpdatedAt = now

	if err := a.Validate(); err != nil {
		return res, err
	}

	created, err := retry.Do(ctx, s.cfg.Retry, func(ctx context.Context) (bool, error) {
		return s.repo.Upsert(ctx, a)
	})
	if err != nil {
		return res, err
	}

	res.Written = true
	switch {
	case len(p.reasons) > 0:
		res.Outcome = OutcomeDegraded
		res.Reason = strings.Join(p.reasons, "; ")
	case created:
		res.Outcome = OutcomeCreated
	default:
		res.Outcome = OutcomeUpdated
	}
	return res, nil
}

// finish records metrics, bumps the cache and logs the run summary.
func (s *Service) finish(ctx context.Context, logger *slog.Logger, report *Report, runErr error) {
	for _, it := range report.Items {
		metrics.RecordIngestItem(report.ChannelID, string(it.Outcome))
	}
	metrics.RecordIngestConflicts(report.ChannelID, report.Conflicts)
	metrics.RecordIngestRun(report.ChannelID, report.Duration, runErr == nil)

	if report.Written() > 0 && s.invalidator != nil {
		s.invalidator.Invalidate(report.ChannelID)
	}
	if runErr == nil {
		if n, err := s.repo.Count(ctx, report.ChannelID); err == nil {
			metrics.UpdateArticlesTotal(report.ChannelID, n)
		}
	}

	attrs := []any{
		slog.Int("items", len(report.Items)),
		slog.Int("created", report.Created),
		slog.Int("updated", report.Updated),
		slog.Int("degraded", report.Degraded),
		slog.Int("conflicts", report.Conflicts),
		slog.Int("unreadable", report.Unreadable),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Duration),
	}
	if runErr != nil {
		logger.Error("ingestion aborted", append(attrs, slog.Any("error", runErr))...)
		return
	}
	logger.Info("ingestion completed", attrs...)
}

// IngestDir ingests the content files of dir into a channel.
func (s *Service) IngestDir(ctx context.Context, channelID, dir string) (*Report, error) {
	if _, err := s.channels.Resolve(channelID); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	items, err := source.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", channelID, err)
	}
	return s.Ingest(ctx, channelID, items)
}

// IngestAll ingests <root>/<channelID> for every configured channel. Channels
// without a directory are skipped. A store outage stops the sweep; other
// failures are collected and the remaining channels still run.
func (s *Service) IngestAll(ctx context.Context, root string) ([]*Report, error) {
	if root == "" {
		return nil, ErrNoContentRoot
	}

	var (
		reports []*Report
		errs    []error
	)
	for _, ch := range s.channels.List() {
		dir := filepath.Join(root, ch.ID)
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("no content directory for channel, skipping",
				slog.String("channel", ch.ID),
				slog.String("dir", dir))
			continue
		}

		report, err := s.IngestDir(ctx, ch.ID, dir)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			if errors.Is(err, entity.ErrStoreUnavailable) || ctx.Err() != nil {
				return reports, err
			}
			errs = append(errs, err)
		}
	}
	return reports, errors.Join(errs...)
}
