// Package ingest loads channel content sources into the article store.
// A run parses every source item, resolves slug collisions within the batch
// and upserts the surviving articles keyed by (channel, slug).
package ingest

import "errors"

// Sentinel errors for ingest use case operations.
var (
	// ErrNoContentRoot indicates IngestAll was called without a content root.
	ErrNoContentRoot = errors.New("content root not configured")
)
