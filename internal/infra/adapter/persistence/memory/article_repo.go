// Package memory provides a process-local article store. It backs the
// "memory" database driver used in development and in use case tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"newsportal/internal/domain/entity"
	"newsportal/internal/repository"
)

// ArticleRepo is a concurrency-safe in-memory ArticleRepository.
// Articles are cloned on the way in and on the way out.
type ArticleRepo struct {
	mu       sync.RWMutex
	articles map[entity.ArticleKey]*entity.Article
}

// NewArticleRepo creates an empty store.
func NewArticleRepo() *ArticleRepo {
	return &ArticleRepo{articles: make(map[entity.ArticleKey]*entity.Article)}
}

var _ repository.ArticleRepository = (*ArticleRepo)(nil)

func (r *ArticleRepo) Upsert(ctx context.Context, a *entity.Article) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if a.Status == "" {
		a.Status = entity.StatusPublished
	}
	a.UpdatedAt = a.UpdatedAt.UTC()
	a.PublishedAt = a.PublishedAt.UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	key := a.Key()
	existing, ok := r.articles[key]
	if ok {
		a.CreatedAt = existing.CreatedAt
	} else {
		a.CreatedAt = a.UpdatedAt
	}
	stored := a.Clone()
	if len(stored.Tags) == 0 {
		stored.Tags = nil
	}
	if len(stored.Aliases) == 0 {
		stored.Aliases = nil
	}
	r.articles[key] = stored
	return !ok, nil
}

func (r *ArticleRepo) Get(ctx context.Context, channelID, slug string) (*entity.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.articles[entity.ArticleKey{ChannelID: channelID, Slug: slug}].Clone(), nil
}

// GetByAlias returns the most recently updated article listing alias.
func (r *ArticleRepo) GetByAlias(ctx context.Context, channelID, alias string) (*entity.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *entity.Article
	for _, a := range r.articles {
		if a.ChannelID != channelID || !slices.Contains(a.Aliases, alias) {
			continue
		}
		if best == nil || a.UpdatedAt.After(best.UpdatedAt) ||
			(a.UpdatedAt.Equal(best.UpdatedAt) && a.Slug < best.Slug) {
			best = a
		}
	}
	return best.Clone(), nil
}

func (r *ArticleRepo) List(ctx context.Context, channelID string, filter repository.ArticleFilter) ([]*entity.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := r.collect(channelID, func(a *entity.Article) bool {
		switch {
		case filter.Status != "" && a.Status != filter.Status:
			return false
		case filter.Category != "" && !strings.EqualFold(a.Category, filter.Category):
			return false
		case filter.FeaturedOnly && !a.Featured:
			return false
		case filter.ExcludeSlug != "" && a.Slug == filter.ExcludeSlug:
			return false
		}
		return true
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Search matches query case-insensitively against title, excerpt and tags.
func (r *ArticleRepo) Search(ctx context.Context, channelID, query string, status entity.Status) ([]*entity.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	return r.collect(channelID, func(a *entity.Article) bool {
		if status != "" && a.Status != status {
			return false
		}
		if strings.Contains(strings.ToLower(a.Title), needle) ||
			strings.Contains(strings.ToLower(a.Excerpt), needle) {
			return true
		}
		return slices.ContainsFunc(a.Tags, func(tag string) bool {
			return strings.Contains(strings.ToLower(tag), needle)
		})
	}), nil
}

func (r *ArticleRepo) CountByCategory(ctx context.Context, channelID string, status entity.Status) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, a := range r.articles {
		if a.ChannelID != channelID || (status != "" && a.Status != status) {
			continue
		}
		counts[strings.ToLower(a.Category)]++
	}
	return counts, nil
}

func (r *ArticleRepo) Count(ctx context.Context, channelID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, a := range r.articles {
		if a.ChannelID == channelID {
			n++
		}
	}
	return n, nil
}

// collect returns clones of the channel's articles accepted by keep, newest first.
func (r *ArticleRepo) collect(channelID string, keep func(*entity.Article) bool) []*entity.Article {
	r.mu.RLock()
	out := make([]*entity.Article, 0, len(r.articles))
	for _, a := range r.articles {
		if a.ChannelID == channelID && keep(a) {
			out = append(out, a.Clone())
		}
	}
	r.mu.RUnlock()

	entity.SortByPublishedDesc(out)
	return out
}
