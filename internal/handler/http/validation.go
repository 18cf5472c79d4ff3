package http

import (
	"net/http"

	"newsportal/internal/handler/http/respond"
)

const (
	// DefaultMaxBodyBytes bounds request bodies. The portal API is read-mostly.
	DefaultMaxBodyBytes = 1 << 20

	maxAuthorizationHeader = 8 << 10
	maxPathLength          = 2 << 10
	maxQueryLength         = 4 << 10
)

// InputValidation returns middleware that rejects oversized headers, paths
// and query strings, and caps request bodies at maxBodyBytes.
func InputValidation(maxBodyBytes int64) func(http.Handler) http.Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case len(r.Header.Get("Authorization")) > maxAuthorizationHeader:
				respond.Error(w, http.StatusBadRequest, "authorization header too large")
				return
			case len(r.URL.Path) > maxPathLength:
				respond.Error(w, http.StatusRequestURITooLong, "URI too long")
				return
			case len(r.URL.RawQuery) > maxQueryLength:
				respond.Error(w, http.StatusRequestURITooLong, "query string too long")
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
