package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"newsportal/internal/domain/entity"
	"newsportal/internal/observability/metrics"
	"newsportal/internal/pkg/search"
	"newsportal/internal/repository"
	"newsportal/internal/resilience/circuitbreaker"
)

const articleColumns = `channel_id, slug, title, content, excerpt, author, category, tags, aliases,
       image, image_alt, featured, status, source_name, published_at, created_at, updated_at`

const orderByPublished = `ORDER BY published_at DESC, slug ASC`

type ArticleRepo struct {
	db           circuitbreaker.Querier
	queryBuilder *ArticleQueryBuilder
}

// NewArticleRepo returns a PostgreSQL article store. db is usually a
// *circuitbreaker.DBCircuitBreaker; a bare *sql.DB works too.
func NewArticleRepo(db circuitbreaker.Querier) repository.ArticleRepository {
	return &ArticleRepo{
		db:           db,
		queryBuilder: NewArticleQueryBuilder(),
	}
}

// Upsert writes the article in one INSERT .. ON CONFLICT statement, so readers
// see either the old or the new row. created_at is only written on insert.
func (repo *ArticleRepo) Upsert(ctx context.Context, a *entity.Article) (bool, error) {
	defer metrics.ObserveDBQuery("Upsert", time.Now())
	const query = `
INSERT INTO articles (` + articleColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
ON CONFLICT (channel_id, slug) DO UPDATE SET
    title        = EXCLUDED.title,
    content      = EXCLUDED.content,
    excerpt      = EXCLUDED.excerpt,
    author       = EXCLUDED.author,
    category     = EXCLUDED.category,
    tags         = EXCLUDED.tags,
    aliases      = EXCLUDED.aliases,
    image        = EXCLUDED.image,
    image_alt    = EXCLUDED.image_alt,
    featured     = EXCLUDED.featured,
    status       = EXCLUDED.status,
    source_name  = EXCLUDED.source_name,
    published_at = EXCLUDED.published_at,
    updated_at   = EXCLUDED.updated_at
RETURNING created_at, (xmax = 0) AS inserted`

	status := a.Status
	if status == "" {
		status = entity.StatusPublished
	}
	updatedAt := a.UpdatedAt.UTC()

	rows, err := repo.db.QueryContext(ctx, query,
		a.ChannelID, a.Slug, a.Title, a.Content, a.Excerpt, a.Author, a.Category,
		pq.Array(nonNil(a.Tags)), pq.Array(nonNil(a.Aliases)),
		a.Image, a.ImageAlt, a.Featured, string(status), a.SourceName,
		a.PublishedAt.UTC(), updatedAt)
	if err != nil {
		return false, circuitbreaker.Classify("Upsert", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return false, circuitbreaker.Classify("Upsert", err)
		}
		return false, errors.New("Upsert: no row returned")
	}
	var createdAt time.Time
	var inserted bool
	if err := rows.Scan(&createdAt, &inserted); err != nil {
		return false, fmt.Errorf("Upsert: Scan: %w", err)
	}
	a.Status = status
	a.CreatedAt = createdAt.UTC()
	a.UpdatedAt = updatedAt
	return inserted, circuitbreaker.Classify("Upsert", rows.Err())
}

func (repo *ArticleRepo) Get(ctx context.Context, channelID, slug string) (*entity.Article, error) {
	const query = `
SELECT ` + articleColumns + `
FROM articles
WHERE channel_id = $1 AND slug = $2
LIMIT 1`
	return repo.queryOne(ctx, "Get", query, channelID, slug)
}

func (repo *ArticleRepo) GetByAlias(ctx context.Context, channelID, alias string) (*entity.Article, error) {
	const query = `
SELECT ` + articleColumns + `
FROM articles
WHERE channel_id = $1 AND $2 = ANY(aliases)
ORDER BY updated_at DESC, slug ASC
LIMIT 1`
	return repo.queryOne(ctx, "GetByAlias", query, channelID, alias)
}

func (repo *ArticleRepo) List(ctx context.Context, channelID string, filter repository.ArticleFilter) ([]*entity.Article, error) {
	where, args := repo.queryBuilder.BuildWhereClause(channelID, filter)
	limit, args := repo.queryBuilder.BuildLimit(filter, args)
	query := fmt.Sprintf("SELECT %s\nFROM articles\n%s\n%s\n%s", articleColumns, where, orderByPublished, limit)
	return repo.queryMany(ctx, "List", query, args...)
}

// Search matches title, excerpt and tags with ILIKE.
func (repo *ArticleRepo) Search(ctx context.Context, channelID, query string, status entity.Status) ([]*entity.Article, error) {
	where, args := repo.queryBuilder.BuildWhereClause(channelID, repository.ArticleFilter{Status: status})
	args = append(args, search.EscapeLike(query))
	p := len(args)
	q := fmt.Sprintf(`SELECT %s
FROM articles
%s AND (title ILIKE $%d ESCAPE '\'
    OR excerpt ILIKE $%d ESCAPE '\'
    OR EXISTS (SELECT 1 FROM unnest(tags) AS t(tag) WHERE t.tag ILIKE $%d ESCAPE '\'))
%s`, articleColumns, where, p, p, p, orderByPublished)
	return repo.queryMany(ctx, "Search", q, args...)
}

func (repo *ArticleRepo) CountByCategory(ctx context.Context, channelID string, status entity.Status) (map[string]int64, error) {
	defer metrics.ObserveDBQuery("CountByCategory", time.Now())
	where, args := repo.queryBuilder.BuildWhereClause(channelID, repository.ArticleFilter{Status: status})
	query := fmt.Sprintf("SELECT lower(category), COUNT(*)\nFROM articles\n%s\nGROUP BY lower(category)", where)

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, circuitbreaker.Classify("CountByCategory", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int64)
	for rows.Next() {
		var category string
		var n int64
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("CountByCategory: Scan: %w", err)
		}
		counts[category] = n
	}
	if err := rows.Err(); err != nil {
		return nil, circuitbreaker.Classify("CountByCategory", err)
	}
	return counts, nil
}

func (repo *ArticleRepo) Count(ctx context.Context, channelID string) (int64, error) {
	defer metrics.ObserveDBQuery("Count", time.Now())
	const query = `SELECT COUNT(*) FROM articles WHERE channel_id = $1`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query, channelID).Scan(&count); err != nil {
		return 0, circuitbreaker.Classify("Count", err)
	}
	return count, nil
}

func (repo *ArticleRepo) queryOne(ctx context.Context, op, query string, args ...any) (*entity.Article, error) {
	articles, err := repo.queryMany(ctx, op, query, args...)
	if err != nil || len(articles) == 0 {
		return nil, err
	}
	return articles[0], nil
}

func (repo *ArticleRepo) queryMany(ctx context.Context, op, query string, args ...any) ([]*entity.Article, error) {
	defer metrics.ObserveDBQuery(op, time.Now())
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, circuitbreaker.Classify(op, err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 16)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, circuitbreaker.Classify(op, err)
	}
	return articles, nil
}

func scanArticle(rows *sql.Rows) (*entity.Article, error) {
	var a entity.Article
	var status string
	var tags, aliases []string
	if err := rows.Scan(&a.ChannelID, &a.Slug, &a.Title, &a.Content, &a.Excerpt,
		&a.Author, &a.Category, pq.Array(&tags), pq.Array(&aliases),
		&a.Image, &a.ImageAlt, &a.Featured, &status, &a.SourceName,
		&a.PublishedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = entity.Status(status)
	a.Tags = emptyToNil(tags)
	a.Aliases = emptyToNil(aliases)
	a.PublishedAt = a.PublishedAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyToNil(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
