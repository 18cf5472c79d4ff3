package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"newsportal/internal/handler/http/respond"
	"newsportal/internal/observability/logging"
)

type ctxKey struct{}

// FromContext returns the claims of the authenticated caller, if any.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}

// RequireRole returns middleware that admits only bearer tokens signed with
// secret whose role claim equals role. Missing or invalid tokens get 401,
// a valid token with another role gets 403.
func RequireRole(secret []byte, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ParseBearer(r.Header.Get("Authorization"), secret)
			if err != nil {
				reason := "invalid_token"
				if errors.Is(err, ErrMissingToken) {
					reason = "missing_token"
				}
				logging.FromContext(r.Context()).Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("path", r.URL.Path))
				respond.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if claims.Role != role {
				logging.FromContext(r.Context()).Warn("authorization failed",
					slog.String("subject", claims.Subject),
					slog.String("role", claims.Role))
				respond.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
		})
	}
}
