package metrics

import (
	"context"
	"database/sql"
	"time"
)

// RecordDBQuery records the duration of one store call. Operation is the
// repository method, e.g. "Upsert" or "Search".
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveDBQuery is RecordDBQuery for use with defer:
//
//	defer metrics.ObserveDBQuery("Get", time.Now())
func ObserveDBQuery(operation string, start time.Time) {
	RecordDBQuery(operation, time.Since(start))
}

// UpdateDBConnectionStats sets the connection pool gauges.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}

// ReportDBStats copies the pool statistics of stats into the connection
// gauges every interval until ctx is done.
func ReportDBStats(ctx context.Context, stats func() sql.DBStats, interval time.Duration) {
	report := func() {
		s := stats()
		UpdateDBConnectionStats(s.InUse, s.Idle)
	}
	report()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report()
		}
	}
}
