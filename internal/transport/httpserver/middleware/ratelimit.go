package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"clinic-app-go/internal/metrics"
	"clinic-app-go/internal/ratelimit"
	"clinic-app-go/pkg/logger"
)

// NewRateLimit throttles callers by the peer address in RemoteAddr, which
// NewRealIP only rewrites for trusted proxies. Limiter failures let the
// request through.
func NewRateLimit(limiter ratelimit.Limiter, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			decision, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				log.InternalError("ratelimit.allow: limiter failed", err, "ip", ip)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if !decision.Allowed {
				retry := int(math.Ceil(decision.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				metrics.RateLimitedTotal.Inc()
				log.Info("ratelimit.allow: request blocked", "ip", ip, "path", r.URL.Path)
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
