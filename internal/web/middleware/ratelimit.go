package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"

	"github.com/JonMunkholm/sheetprep/internal/logging"
)

// visitorIdle is how long an unused per-client bucket is kept.
const visitorIdle = 10 * time.Minute

// RateLimiter is a per-client token bucket keyed by client IP. Buckets for
// clients that go quiet expire from the cache.
type RateLimiter struct {
	mu       sync.Mutex
	visitors *ttlcache.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perMinute requests per client with the given burst.
// Call Stop to end the expiry goroutine.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	c := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](visitorIdle),
	)
	go c.Start()
	return &RateLimiter{
		visitors: c,
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
	}
}

// Allow reports whether key may make a request now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	var lim *rate.Limiter
	if item := l.visitors.Get(key); item != nil {
		lim = item.Value()
	} else {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.visitors.Set(key, lim, ttlcache.DefaultTTL)
	}
	l.mu.Unlock()
	return lim.Allow()
}

// Len is the number of tracked clients.
func (l *RateLimiter) Len() int {
	return l.visitors.Len()
}

// Stop ends the expiry goroutine.
func (l *RateLimiter) Stop() {
	l.visitors.Stop()
}

// retryAfter is the whole seconds until one token is available.
func (l *RateLimiter) retryAfter() string {
	secs := 1
	if l.limit > 0 {
		secs = max(1, int(1/float64(l.limit)+0.5))
	}
	return strconv.Itoa(secs)
}

// Handler rejects requests over the limit with 429.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if l.Allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		logging.FromContext(r.Context()).Warn("rate limit exceeded",
			"method", r.Method,
			"path", r.URL.Path,
			"ip", ip,
		)
		w.Header().Set("Retry-After", l.retryAfter())
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, authFailure{
			Error:   http.StatusText(http.StatusTooManyRequests),
			Message: "Too many requests. Slow down and try again shortly.",
			Code:    "RATE001",
		})
	})
}
