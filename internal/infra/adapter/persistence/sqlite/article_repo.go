package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"newsportal/internal/domain/entity"
	"newsportal/internal/observability/metrics"
	"newsportal/internal/pkg/search"
	"newsportal/internal/repository"
	"newsportal/internal/resilience/circuitbreaker"
)

const articleColumns = `channel_id, slug, title, content, excerpt, author, category, tags, aliases,
       image, image_alt, featured, status, source_name, published_at, created_at, updated_at`

const orderByPublished = `ORDER BY published_at DESC, slug ASC`

// ArticleRepo implements the ArticleRepository interface using SQLite.
// Tags and aliases are stored as JSON arrays and queried with json_each.
type ArticleRepo struct {
	db           *sql.DB
	queryBuilder *ArticleQueryBuilder
}

// NewArticleRepo creates a new SQLite-backed article store.
func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db, queryBuilder: NewArticleQueryBuilder()}
}

// Upsert reads the existing creation time and writes the row inside one
// transaction, so the created flag and the stored row always agree.
func (repo *ArticleRepo) Upsert(ctx context.Context, a *entity.Article) (created bool, err error) {
	defer metrics.ObserveDBQuery("Upsert", time.Now())
	tags, err := encodeList(a.Tags)
	if err != nil {
		return false, fmt.Errorf("Upsert: encode tags: %w", err)
	}
	aliases, err := encodeList(a.Aliases)
	if err != nil {
		return false, fmt.Errorf("Upsert: encode aliases: %w", err)
	}
	status := a.Status
	if status == "" {
		status = entity.StatusPublished
	}
	updatedAt := a.UpdatedAt.UTC()

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return false, classify("Upsert: BeginTx", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var createdAt time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT created_at FROM articles WHERE channel_id = ? AND slug = ?`,
		a.ChannelID, a.Slug).Scan(&createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		created, createdAt = true, updatedAt
	case err != nil:
		return false, classify("Upsert: select", err)
	}

	const query = `
INSERT INTO articles (` + articleColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (channel_id, slug) DO UPDATE SET
    title        = excluded.title,
    content      = excluded.content,
    excerpt      = excluded.excerpt,
    author       = excluded.author,
    category     = excluded.category,
    tags         = excluded.tags,
    aliases      = excluded.aliases,
    image        = excluded.image,
    image_alt    = excluded.image_alt,
    featured     = excluded.featured,
    status       = excluded.status,
    source_name  = excluded.source_name,
    published_at = excluded.published_at,
    updated_at   = excluded.updated_at`
	if _, err = tx.ExecContext(ctx, query,
		a.ChannelID, a.Slug, a.Title, a.Content, a.Excerpt, a.Author, a.Category,
		tags, aliases, a.Image, a.ImageAlt, a.Featured, string(status), a.SourceName,
		a.PublishedAt.UTC(), createdAt.UTC(), updatedAt); err != nil {
		return false, classify("Upsert: ExecContext", err)
	}
	if err = tx.Commit(); err != nil {
		return false, classify("Upsert: Commit", err)
	}

	a.Status = status
	a.CreatedAt = createdAt.UTC()
	a.UpdatedAt = updatedAt
	return created, nil
}

// Get retrieves an article by slug. Returns (nil, nil) if not found.
func (repo *ArticleRepo) Get(ctx context.Context, channelID, slug string) (*entity.Article, error) {
	const query = `
SELECT ` + articleColumns + `
FROM articles
WHERE channel_id = ? AND slug = ?
LIMIT 1`
	return repo.queryOne(ctx, "Get", query, channelID, slug)
}

func (repo *ArticleRepo) GetByAlias(ctx context.Context, channelID, alias string) (*entity.Article, error) {
	const query = `
SELECT ` + articleColumns + `
FROM articles
WHERE channel_id = ?
  AND EXISTS (SELECT 1 FROM json_each(articles.aliases) WHERE json_each.value = ?)
ORDER BY updated_at DESC, slug ASC
LIMIT 1`
	return repo.queryOne(ctx, "GetByAlias", query, channelID, alias)
}

func (repo *ArticleRepo) List(ctx context.Context, channelID string, filter repository.ArticleFilter) ([]*entity.Article, error) {
	where, args := repo.queryBuilder.BuildWhereClause(channelID, filter)
	query := fmt.Sprintf("SELECT %s\nFROM articles\n%s\n%s", articleColumns, where, orderByPublished)
	if filter.Limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, filter.Limit)
	}
	return repo.queryMany(ctx, "List", query, args...)
}

// Search folds both sides with fold(), registered by db.Open, so matching is
// case-insensitive beyond ASCII.
func (repo *ArticleRepo) Search(ctx context.Context, channelID, query string, status entity.Status) ([]*entity.Article, error) {
	where, args := repo.queryBuilder.BuildWhereClause(channelID, repository.ArticleFilter{Status: status})
	pattern := search.EscapeLike(strings.ToLower(query))
	args = append(args, pattern, pattern, pattern)
	q := fmt.Sprintf(`SELECT %s
FROM articles
%s AND (fold(title) LIKE ? ESCAPE '\'
    OR fold(excerpt) LIKE ? ESCAPE '\'
    OR EXISTS (SELECT 1 FROM json_each(articles.tags) WHERE fold(json_each.value) LIKE ? ESCAPE '\'))
%s`, articleColumns, where, orderByPublished)
	return repo.queryMany(ctx, "Search", q, args...)
}

func (repo *ArticleRepo) CountByCategory(ctx context.Context, channelID string, status entity.Status) (map[string]int64, error) {
	defer metrics.ObserveDBQuery("CountByCategory", time.Now())
	where, args := repo.queryBuilder.BuildWhereClause(channelID, repository.ArticleFilter{Status: status})
	query := fmt.Sprintf("SELECT fold(category), COUNT(*)\nFROM articles\n%s\nGROUP BY fold(category)", where)

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("CountByCategory", err)
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
		return nil, classify("CountByCategory", err)
	}
	return counts, nil
}

func (repo *ArticleRepo) Count(ctx context.Context, channelID string) (int64, error) {
	defer metrics.ObserveDBQuery("Count", time.Now())
	var count int64
	err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles WHERE channel_id = ?`, channelID).Scan(&count)
	if err != nil {
		return 0, classify("Count", err)
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
		return nil, classify(op+": QueryContext", err)
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
		return nil, classify(op+": rows.Err", err)
	}
	return articles, nil
}

func scanArticle(rows *sql.Rows) (*entity.Article, error) {
	var a entity.Article
	var status, tags, aliases string
	if err := rows.Scan(&a.ChannelID, &a.Slug, &a.Title, &a.Content, &a.Excerpt,
		&a.Author, &a.Category, &tags, &aliases,
		&a.Image, &a.ImageAlt, &a.Featured, &status, &a.SourceName,
		&a.PublishedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if a.Tags, err = decodeList(tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if a.Aliases, err = decodeList(aliases); err != nil {
		return nil, fmt.Errorf("decode aliases: %w", err)
	}
	a.Status = entity.Status(status)
	a.PublishedAt = a.PublishedAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

func encodeList(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(values)
	return string(b), err
}

func decodeList(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}

// classify marks lock contention and file access failures as store
// unavailability and defers to the shared classifier otherwise.
func classify(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrNotADB:
			return &entity.StoreUnavailableError{Op: op, Err: err}
		}
	}
	return circuitbreaker.Classify(op, err)
}
