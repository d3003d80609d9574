package middleware

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/teamposts/teamposts/internal/api/response"
	"github.com/teamposts/teamposts/internal/ratelimit"
)

// RateLimiter applies per-route-class limits backed by a ratelimit.Store.
type RateLimiter struct {
	store   ratelimit.Store
	logger  *zap.Logger
	enabled bool
}

// NewRateLimiter creates a RateLimiter. When enabled is false every Limit
// middleware passes requests through untouched.
func NewRateLimiter(store ratelimit.Store, logger *zap.Logger, enabled bool) *RateLimiter {
	return &RateLimiter{store: store, logger: logger, enabled: enabled}
}

// Limit returns middleware enforcing l on the bucket class. Store errors
// fail open.
func (rl *RateLimiter) Limit(class string, l ratelimit.Limit) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !rl.enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ratelimit.BucketKey(class, r)

			res, err := rl.store.Take(r.Context(), key, l)
			if err != nil {
				rl.logger.Warn("rate limit store unavailable, allowing request",
					zap.Error(err),
					zap.String("class", class),
					zap.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				retryAfter := res.RetryAfterSeconds()
				requestID := GetRequestID(r.Context())
				rl.logger.Warn("rate limit exceeded",
					zap.String("event_type", "rate_limited"),
					zap.String("class", class),
					zap.String("limit", l.String()),
					zap.String("request_path", r.URL.Path),
					zap.String("request_id", requestID),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				response.ErrWithDetails(w, http.StatusTooManyRequests, "RATE_LIMITED", response.MsgRateLimited, map[string]any{
					"retry_after": retryAfter,
					"limit":       l.String(),
				}, requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
