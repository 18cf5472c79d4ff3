// Package sqlite provides SQLite implementations of repository interfaces.
// It backs local development and single-node deployments.
package sqlite

import (
	"strings"

	"newsportal/internal/repository"
)

// ArticleQueryBuilder builds WHERE clauses for article listings.
// The channel condition is always first.
type ArticleQueryBuilder struct{}

// NewArticleQueryBuilder creates a new query builder instance.
func NewArticleQueryBuilder() *ArticleQueryBuilder {
	return &ArticleQueryBuilder{}
}

// BuildWhereClause returns the WHERE clause for filter and its arguments.
func (qb *ArticleQueryBuilder) BuildWhereClause(channelID string, filter repository.ArticleFilter) (clause string, args []any) {
	conditions := []string{"channel_id = ?"}
	args = []any{channelID}

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Category != "" {
		conditions = append(conditions, "fold(category) = ?")
		args = append(args, strings.ToLower(filter.Category))
	}
	if filter.FeaturedOnly {
		conditions = append(conditions, "featured = 1")
	}
	if filter.ExcludeSlug != "" {
		conditions = append(conditions, "slug <> ?")
		args = append(args, filter.ExcludeSlug)
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}
