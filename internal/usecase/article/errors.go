// Package article resolves channel-scoped article queries: listings,
// category and slug lookups, related articles and search.
package article

import (
	"newsportal/internal/domain/entity"
)

// Sentinel errors for article use case operations.
var (
	// ErrArticleNotFound indicates that no published article has the requested
	// slug or alias in the channel. It matches entity.ErrNotFound.
	ErrArticleNotFound error = &entity.NotFoundError{Kind: "article"}
)
