package middleware

import (
	"net/http"
	"strings"
)

// Policy is a Content-Security-Policy as an ordered list of directives.
type Policy [][2]string

// APIPolicy forbids every fetch and framing. Responses are JSON and are never
// meant to render in a browser; article HTML is embedded by the front end.
var APIPolicy = Policy{
	{"default-src", "'none'"},
	{"frame-ancestors", "'none'"},
	{"base-uri", "'none'"},
	{"form-action", "'none'"},
}

// String renders the header value, e.g. "default-src 'none'; base-uri 'none'".
func (p Policy) String() string {
	parts := make([]string, 0, len(p))
	for _, d := range p {
		parts = append(parts, d[0]+" "+d[1])
	}
	return strings.Join(parts, "; ")
}

// SecurityHeaders sets the CSP and the usual hardening headers on every
// response. An empty policy omits Content-Security-Policy.
func SecurityHeaders(policy Policy) func(http.Handler) http.Handler {
	csp := policy.String()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if csp != "" {
				h.Set("Content-Security-Policy", csp)
			}
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			next.ServeHTTP(w, r)
		})
	}
}
