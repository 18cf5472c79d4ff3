package article

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"newsportal/internal/content/slug"
	"newsportal/internal/domain/entity"
	"newsportal/internal/observability/metrics"
	"newsportal/internal/repository"
)

const (
	// DefaultRelatedLimit is used when Related is called with a non-positive limit.
	DefaultRelatedLimit = 3
	// DefaultFeaturedLimit is used when Featured is called with a non-positive limit.
	DefaultFeaturedLimit = 5
	// MaxLimit caps Related and Featured.
	MaxLimit = 20
)

// ChannelResolver looks up configured channels. *channel.Registry implements it.
type ChannelResolver interface {
	Resolve(identifier string) (entity.Channel, error)
}

// ListOptions filters ListAll.
type ListOptions struct {
	// Status selects published (the default) or draft articles.
	Status entity.Status
}

// CategoryCount pairs a category with its number of published articles.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
	// Configured is false for categories used by articles but absent from the channel configuration.
	Configured bool `json:"configured"`
}

// Service provides channel-scoped article queries.
// Every method resolves the channel first and fails with
// channel.ErrChannelNotFound for unknown identifiers.
type Service struct {
	channels ChannelResolver
	repo     repository.ArticleRepository
	cache    *Cache
}

// NewService creates a query Service. cache may be nil to disable caching.
func NewService(channels ChannelResolver, repo repository.ArticleRepository, cache *Cache) *Service {
	return &Service{channels: channels, repo: repo, cache: cache}
}

func (s *Service) channel(channelID string) (entity.Channel, error) {
	ch, err := s.channels.Resolve(channelID)
	if err != nil {
		return entity.Channel{}, err
	}
	return ch, nil
}

func observe(op string, start time.Time) {
	metrics.RecordQuery(op, time.Since(start))
}

// ListAll returns the channel's articles newest first.
func (s *Service) ListAll(ctx context.Context, channelID string, opts ListOptions) ([]*entity.Article, error) {
	defer observe("list_all", time.Now())
	ch, err := s.channel(channelID)
	if err != nil {
		return nil, err
	}
	status := opts.Status
	if status == "" {
		status = entity.StatusPublished
	}

	return cached(s.cache, ch.ID, "list:"+string(status), func() ([]*entity.Article, error) {
		articles, err := s.repo.List(ctx, ch.ID, repository.ArticleFilter{Status: status})
		if err != nil {
			return nil, fmt.Errorf("list articles: %w", err)
		}
		return articles, nil
	}, cloneArticles)
}

// ByCategory returns published articles whose category matches
// case-insensitively. An unknown category yields an empty slice.
func (s *Service) ByCategory(ctx context.Context, channelID, category string) ([]*entity.Article, error) {
	defer observe("by_category", time.Now())
	ch, err := s.channel(channelID)
	if err != nil {
		return nil, err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return []*entity.Article{}, nil
	}

	return cached(s.cache, ch.ID, "category:"+strings.ToLower(category), func() ([]*entity.Article, error) {
		articles, err := s.repo.List(ctx, ch.ID, repository.ArticleFilter{
			Status:   entity.StatusPublished,
			Category: category,
		})
		if err != nil {
			return nil, fmt.Errorf("list articles by category: %w", err)
		}
		return articles, nil
	}, cloneArticles)
}

// BySlug returns the published article with the slug, or else the most
// recently updated published article listing it as an alias.
func (s *Service) BySlug(ctx context.Context, channelID, articleSlug string) (*entity.Article, error) {
	defer observe("by_slug", time.Now())
	ch, err := s.channel(channelID)
	if err != nil {
		return nil, err
	}
	key := slug.Normalize(articleSlug)
	if key == "" {
		return nil, ErrArticleNotFound
	}

	return cached(s.cache, ch.ID, "slug:"+key, func() (*entity.Article, error) {
		a, err := s.repo.Get(ctx, ch.ID, key)
		if err != nil {
			return nil, fmt.Errorf("get article: %w", err)
		}
		if a != nil && a.IsPublished() {
			return a, nil
		}
		a, err = s.repo.GetByAlias(ctx, ch.ID, key)
		if err != nil {
			return nil, fmt.Errorf("get article by alias: %w", err)
		}
		if a == nil || !a.IsPublished() {
			return nil, ErrArticleNotFound
		}
		return a, nil
	}, cloneArticle)
}

// Related returns up to limit published articles of the same category,
// excluding excludeSlug. limit <= 0 means DefaultRelatedLimit and values
// above MaxLimit are capped.
func (s *Service) Related(ctx context.Context, channelID, category, excludeSlug string, limit int) ([]*entity.Article, error) {
	defer observe("related", time.Now())
	ch, err := s.channel(channelID)
	if err != nil {
		return nil, err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return []*entity.Article{}, nil
	}
	limit = clampLimit(limit, DefaultRelatedLimit)

	key := "related:" + strings.ToLower(category) + ":" + excludeSlug + ":" + strconv.Itoa(limit)
	return cached(s.cache, ch.ID, key, func() ([]*entity.Article, error) {
		articles, err := s.repo.List(ctx, ch.ID, repository.ArticleFilter{
			Status:      entity.StatusPublished,
			Category:    category,
			ExcludeSlug: excludeSlug,
			Limit:       limit,
		})
		if err != nil {
			return nil, fmt.Errorf("list related articles: %w", err)
		}
		return articles, nil
	}, cloneArticles)
}

// Search matches query case-insensitively against title, excerpt and tags
// of published articles. Title matches rank first; each rank is ordered
// newest first. A blank query yields an empty slice.
func (s *Service) Search(ctx context.Context, channelID, query string) ([]*entity.Article, error) {
	defer observe("search", time.Now())
	ch, err := s.channel(channelID)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []*entity.Article{}, nil
	}

	return cached(s.cache, ch.ID, "search:"+strings.ToLower(query), func() ([]*entity.Article, error) {
		articles, err := s.repo.Search(ctx, ch.ID, query, entity.StatusPublished)
		if err != nil {
			return nil, fmt.Errorf("search articles: %w", err)
		}
		return rankByTitle(articles, query), nil
	}, cloneArticles)
}

// rankByTitle moves title matches ahead of the rest, keeping the
// publishedAt DESC, slug ASC order inside each group.
func rankByTitle(articles []*entity.Article, query string) []*entity.Article {
	entity.SortByPublishedDesc(articles)
	needle := strings.ToLower(query)
	ranked := make([]*entity.Article, 0, len(articles))
	rest := make([]*entity.Article, 0, len(articles))
	for _, a := range articles {
		if strings.Contains(strings.ToLower(a.Title), needle) {
			ranked = append(ranked, a)
		} else {
			rest = append(rest, a)
		}
	}
	return append(ranked, rest...)
}

// Featured returns up to limit featured published articles, newest first.
func (s *Service) Featured(ctx context.Context, channelID string, limit int) ([]*entity.Article, error) {
	defer observe("featured", time.Now())
	ch, err := s.channel(channelID)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit, DefaultFeaturedLimit)

	return cached(s.cache, ch.ID, "featured:"+strconv.Itoa(limit), func() ([]*entity.Article, error) {
		articles, err := s.repo.List(ctx, ch.ID, repository.ArticleFilter{
			Status:       entity.StatusPublished,
			FeaturedOnly: true,
			Limit:        limit,
		})
		if err != nil {
			return nil, fmt.Errorf("list featured articles: %w", err)
		}
		return articles, nil
	}, cloneArticles)
}

// Categories returns the channel's configured categories in configured
// order with their published article counts, followed by categories that
// only appear on articles, alphabetically.
func (s *Service) Categories(ctx context.Context, channelID string) ([]CategoryCount, error) {
	defer observe("categories", time.Now())
	ch, err := s.channel(channelID)
	if err != nil {
		return nil, err
	}

	return cached(s.cache, ch.ID, "categories", func() ([]CategoryCount, error) {
		counts, err := s.repo.CountByCategory(ctx, ch.ID, entity.StatusPublished)
		if err != nil {
			return nil, fmt.Errorf("count categories: %w", err)
		}

		out := make([]CategoryCount, 0, len(ch.Categories)+len(counts))
		for _, name := range ch.Categories {
			key := strings.ToLower(name)
			out = append(out, CategoryCount{Name: name, Count: counts[key], Configured: true})
			delete(counts, key)
		}
		extra := make([]string, 0, len(counts))
		for name := range counts {
			if name != "" {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		for _, name := range extra {
			out = append(out, CategoryCount{Name: name, Count: counts[name]})
		}
		return out, nil
	}, cloneCategories)
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, MaxLimit)
}

