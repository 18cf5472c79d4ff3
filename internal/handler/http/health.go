// Package http assembles the portal's HTTP surface: health checks, metrics
// and the middleware shared by every route.
package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"newsportal/internal/handler/http/respond"
	"newsportal/internal/observability/logging"
	"newsportal/internal/observability/metrics"
)

// Pinger reports store connectivity. *sql.DB and the circuit breaker wrapper
// implement it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StatsProvider exposes connection pool statistics.
type StatsProvider interface {
	Stats() sql.DBStats
}

// ChannelCounter reports how many channels are configured.
type ChannelCounter interface {
	Len() int
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"` // "healthy", "degraded" or "unhealthy"
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthHandler reports store connectivity and the channel registry state.
// A nil Store means the in-memory store is in use and is always healthy.
type HealthHandler struct {
	Store    Pinger
	Stats    StatsProvider
	Channels ChannelCounter
	Version  string
}

// ServeHTTP returns 200 when every check passes and 503 otherwise.
// Degraded checks do not fail the check.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{
		"store":    h.checkStore(ctx),
		"channels": h.checkChannels(),
	}

	status, code := "healthy", http.StatusOK
	for _, c := range checks {
		if c.Status == "unhealthy" {
			status, code = "unhealthy", http.StatusServiceUnavailable
			break
		}
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkStore(ctx context.Context) CheckStatus {
	if h.Store == nil {
		return CheckStatus{Status: "healthy", Message: "in-memory store"}
	}
	if err := h.Store.PingContext(ctx); err != nil {
		return CheckStatus{Status: "unhealthy", Message: respond.SanitizeError(err)}
	}
	if h.Stats == nil {
		return CheckStatus{Status: "healthy"}
	}

	stats := h.Stats.Stats()
	metrics.UpdateDBConnectionStats(stats.InUse, stats.Idle)
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
	// Zero means unlimited.
	if stats.MaxOpenConnections == 0 {
		return CheckStatus{Status: "healthy", Details: details}
	}
	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilization
	if utilization >= 80.0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "connection pool utilization above 80%",
			Details: details,
		}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

func (h *HealthHandler) checkChannels() CheckStatus {
	if h.Channels == nil || h.Channels.Len() == 0 {
		return CheckStatus{Status: "unhealthy", Message: "no channels configured"}
	}
	return CheckStatus{Status: "healthy", Details: map[string]any{"count": h.Channels.Len()}}
}

// ReadyHandler answers readiness checks. The service is ready once the store
// answers a ping.
type ReadyHandler struct {
	Store Pinger
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.Store != nil {
		if err := h.Store.PingContext(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("readiness check failed",
				"error", respond.SanitizeError(err))
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
	}
	writeText(w, "ready")
}

// LiveHandler answers liveness checks.
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeText(w, "alive")
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// RegisterHealthRoutes mounts /health, /ready, /live and /metrics.
func RegisterHealthRoutes(mux *http.ServeMux, health *HealthHandler) {
	mux.Handle("GET /health", health)
	mux.Handle("GET /ready", &ReadyHandler{Store: health.Store})
	mux.Handle("GET /live", &LiveHandler{})
	mux.Handle("GET /metrics", MetricsHandler())
}
