package metrics

import (
	"time"
)

// RecordIngestItem records the outcome of one source item.
// Outcome is one of created, updated, degraded, conflict, unreadable or failed.
func RecordIngestItem(channel, outcome string) {
	IngestItemsTotal.WithLabelValues(channel, outcome).Inc()
}

// RecordIngestConflicts records slug collisions found in a batch.
func RecordIngestConflicts(channel string, count int) {
	if count <= 0 {
		return
	}
	IngestConflictsTotal.WithLabelValues(channel).Add(float64(count))
}

// RecordIngestRun records a finished ingestion run for a channel.
func RecordIngestRun(channel string, duration time.Duration, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	IngestRunsTotal.WithLabelValues(channel, result).Inc()
	IngestRunDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// UpdateArticlesTotal sets the stored article count of a channel.
// It should be refreshed after each ingestion run.
func UpdateArticlesTotal(channel string, count int64) {
	ArticlesTotal.WithLabelValues(channel).Set(float64(count))
}

// RecordQuery records how long an article query took.
// Operation names the resolver method, e.g. "list_all" or "search".
func RecordQuery(operation string, duration time.Duration) {
	QueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordQueryCache records a query cache hit or miss.
func RecordQueryCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	QueryCacheTotal.WithLabelValues(result).Inc()
}
