// Package postgres provides PostgreSQL implementations of repository interfaces.
package postgres

import (
	"fmt"
	"strings"

	"newsportal/internal/repository"
)

// ArticleQueryBuilder builds WHERE clauses for article listings in PostgreSQL.
// The channel condition is always first, so every query it builds is scoped to
// one channel.
type ArticleQueryBuilder struct{}

// NewArticleQueryBuilder creates a new query builder instance.
func NewArticleQueryBuilder() *ArticleQueryBuilder {
	return &ArticleQueryBuilder{}
}

// BuildWhereClause returns the WHERE clause for filter and its arguments.
// Placeholders are numbered from $1.
func (qb *ArticleQueryBuilder) BuildWhereClause(channelID string, filter repository.ArticleFilter) (clause string, args []any) {
	conditions := []string{"channel_id = $1"}
	args = []any{channelID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("lower(category) = lower($%d)", len(args)))
	}
	if filter.FeaturedOnly {
		conditions = append(conditions, "featured")
	}
	if filter.ExcludeSlug != "" {
		args = append(args, filter.ExcludeSlug)
		conditions = append(conditions, fmt.Sprintf("slug <> $%d", len(args)))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// BuildLimit appends a LIMIT placeholder when filter has a limit.
func (qb *ArticleQueryBuilder) BuildLimit(filter repository.ArticleFilter, args []any) (string, []any) {
	if filter.Limit <= 0 {
		return "", args
	}
	args = append(args, filter.Limit)
	return fmt.Sprintf("LIMIT $%d", len(args)), args
}
