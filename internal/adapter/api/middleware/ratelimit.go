package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit applies a global token-bucket limit across all clients. Listing
// queries fan out into multi-way joins, so the cap protects the database
// rather than fairness between callers.
func RateLimit(rps float64, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.Warn("request rate limited",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"request_id", GetRequestID(r.Context()),
				)
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
