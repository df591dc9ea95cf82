// internal/middleware/ratelimit.go
//
// Token-bucket limiter per client IP.  Buckets live in a go-cache store so
// idle clients are evicted without a hand-rolled sweeper.  Only the
// methods named in the constructor are limited; the auth component uses it
// for POSTs to login, signup, and forgot-password.

package middleware

import (
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/toescalado/escalado/internal/logger"
	"github.com/toescalado/escalado/internal/requestinfo"
)

// RateLimit allows perMinute requests per client IP with the given burst.
// methods limits which methods are counted; empty means all.
func RateLimit(perMinute, burst int, methods ...string) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	buckets := gocache.New(10*time.Minute, 5*time.Minute)
	limited := map[string]bool{}
	for _, m := range methods {
		limited[m] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(limited) > 0 && !limited[r.Method] {
				next.ServeHTTP(w, r)
				return
			}
			key := "unknown"
			if ip := requestinfo.ClientIP(r); ip != nil {
				key = ip.String()
			}
			lim := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
			if err := buckets.Add(key, lim, gocache.DefaultExpiration); err != nil {
				if v, ok := buckets.Get(key); ok {
					lim = v.(*rate.Limiter)
				}
			}
			buckets.SetDefault(key, lim) // slide expiry

			if !lim.Allow() {
				logger.FromContext(r.Context()).Infow("rate limited", "ip", key, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
