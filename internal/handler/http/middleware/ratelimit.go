package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"newsportal/internal/handler/http/respond"
)

var rateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_rate_limited_total",
		Help: "Requests rejected by a rate limiter",
	},
	[]string{"limiter"},
)

// DefaultMaxKeys bounds the number of client addresses tracked by a limiter.
const DefaultMaxKeys = 10000

// RateLimiter is a per-IP token bucket limiter. The least recently seen
// addresses are evicted once MaxKeys is reached, so memory stays bounded
// without a cleanup goroutine.
type RateLimiter struct {
	name      string
	limit     rate.Limit
	burst     int
	extractor IPExtractor

	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
}

// RateLimiterConfig configures a RateLimiter.
type RateLimiterConfig struct {
	// Name labels metrics and logs, for example "search".
	Name string
	// PerMinute is the sustained number of requests per client per minute.
	PerMinute int
	// Burst is the bucket size; zero means PerMinute/10, at least 1.
	Burst   int
	MaxKeys int
}

// NewRateLimiter creates a limiter. A nil extractor uses RemoteAddr.
func NewRateLimiter(cfg RateLimiterConfig, extractor IPExtractor) *RateLimiter {
	if extractor == nil {
		extractor = RemoteAddrExtractor{}
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = DefaultMaxKeys
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = max(cfg.PerMinute/10, 1)
	}
	limiters, _ := lru.New[string, *rate.Limiter](cfg.MaxKeys)
	return &RateLimiter{
		name:      cfg.Name,
		limit:     rate.Limit(float64(cfg.PerMinute) / 60),
		burst:     burst,
		extractor: extractor,
		limiters:  limiters,
	}
}

// Allow reports whether a request from ip may proceed now.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	l, ok := rl.limiters.Get(ip)
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters.Add(ip, l)
	}
	rl.mu.Unlock()
	return l.Allow()
}

// Len returns the number of tracked addresses.
func (rl *RateLimiter) Len() int {
	return rl.limiters.Len()
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, err := rl.extractor.ExtractIP(r)
		if err != nil {
			slog.Warn("rate limiter: cannot determine client address",
				slog.String("limiter", rl.name),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Any("error", err))
			ip = r.RemoteAddr
		}
		if !rl.Allow(ip) {
			rateLimitedTotal.WithLabelValues(rl.name).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
			respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retryAfter is the number of seconds until one token is available again.
func (rl *RateLimiter) retryAfter() int {
	if rl.limit <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(rl.limit)))
}
