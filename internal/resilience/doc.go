// Package resilience holds the article store's failure handling.
//
// circuitbreaker wraps the Postgres connection so a dead database fails fast
// and classifies store errors into entity.ErrStoreUnavailable. retry re-runs a
// single store call after a dropped connection. The ingestor combines both:
//
//	created, err := retry.Do(ctx, retry.Store(), func(ctx context.Context) (bool, error) {
//	    return repo.Upsert(ctx, article)
//	})
package resilience
