package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/transport"
)

// RateLimit caps requests per client IP. A non-positive limit disables it.
func RateLimit(base *transport.BaseHandler, limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			base.WriteAppError(w, internal.NewHTTPError(http.StatusTooManyRequests, "too many requests, slow down", internal.ErrCodeRateLimited))
		}),
	)
}
