// Package admin serves operator endpoints. They are mounted behind
// auth.RequireRole(secret, auth.RoleAdmin).
package admin

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"

	"newsportal/internal/domain/entity"
	"newsportal/internal/handler/http/respond"
	"newsportal/internal/observability/logging"
	"newsportal/internal/usecase/ingest"
)

// Ingester runs an ingestion of a directory. *ingest.Service implements it.
type Ingester interface {
	IngestDir(ctx context.Context, channelID, dir string) (*ingest.Report, error)
}

// ChannelResolver canonicalizes channel identifiers.
type ChannelResolver interface {
	Resolve(identifier string) (entity.Channel, error)
}

// IngestHandler re-ingests <ContentRoot>/<channel id> and returns the run report.
type IngestHandler struct {
	Svc         Ingester
	Channels    ChannelResolver
	ContentRoot string
}

// Register mounts POST /admin/channels/{channel}/ingest wrapped by guard.
func Register(mux *http.ServeMux, h IngestHandler, guard func(http.Handler) http.Handler) {
	mux.Handle("POST /admin/channels/{channel}/ingest", guard(h))
}

func (h IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	if h.ContentRoot == "" {
		respond.Error(w, http.StatusServiceUnavailable, "content root is not configured")
		return
	}
	ch, err := h.Channels.Resolve(r.PathValue("channel"))
	if err != nil {
		respond.SafeError(w, err)
		return
	}

	report, err := h.Svc.IngestDir(r.Context(), ch.ID, filepath.Join(h.ContentRoot, ch.ID))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		respond.Error(w, http.StatusNotFound, "content directory not found")
		return
	case err != nil && report == nil:
		respond.SafeError(w, err)
		return
	case err != nil:
		logger.Error("ingestion aborted",
			slog.String("channel", ch.ID),
			slog.String("error", respond.SanitizeError(err)))
		respond.JSON(w, respond.StatusOf(err), report)
		return
	}
	respond.JSON(w, http.StatusOK, report)
}
