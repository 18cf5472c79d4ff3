// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Ingestion metrics (items by outcome, conflicts, run duration)
//   - Query metrics (resolution time, cache hits)
//   - Database query and connection pool metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "newsportal/internal/observability/metrics"
//
//	func ingest(channel string) {
//	    start := time.Now()
//	    // ... upsert articles ...
//	    metrics.RecordIngestItem(channel, "created")
//	    metrics.RecordIngestRun(channel, time.Since(start), true)
//	}
package metrics
