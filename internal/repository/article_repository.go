package repository

import (
	"context"

	"newsportal/internal/domain/entity"
)

// ArticleFilter narrows List results. The zero value matches every article of
// the channel.
type ArticleFilter struct {
	Status       entity.Status // empty matches any status
	Category     string        // case-insensitive exact match, empty matches any
	FeaturedOnly bool
	ExcludeSlug  string
	Limit        int // <= 0 means unlimited
}

// ArticleRepository is the canonical article store. Every method is scoped to
// one channel; no method returns an article of another channel.
//
// Implementations classify connectivity failures so that
// errors.Is(err, entity.ErrStoreUnavailable) holds for them. Missing records are
// reported as (nil, nil), never as an error.
type ArticleRepository interface {
	// Upsert inserts the article or overwrites every mutable field of the
	// existing (ChannelID, Slug) record atomically. a.UpdatedAt is the write
	// time. On return a.CreatedAt holds the stored creation time, which an
	// update never changes.
	Upsert(ctx context.Context, a *entity.Article) (created bool, err error)
	Get(ctx context.Context, channelID, slug string) (*entity.Article, error)
	// GetByAlias returns the most recently updated article listing alias.
	GetByAlias(ctx context.Context, channelID, alias string) (*entity.Article, error)
	// List returns matching articles ordered by PublishedAt DESC, Slug ASC.
	List(ctx context.Context, channelID string, filter ArticleFilter) ([]*entity.Article, error)
	// Search returns articles whose title, excerpt or one of the tags contains
	// query case-insensitively, ordered like List.
	Search(ctx context.Context, channelID, query string, status entity.Status) ([]*entity.Article, error)
	// CountByCategory returns article counts keyed by lower-cased category.
	CountByCategory(ctx context.Context, channelID string, status entity.Status) (map[string]int64, error)
	Count(ctx context.Context, channelID string) (int64, error)
}
