package middleware

import (
	"net/http"
	"strconv"
	"time"

	"debandi-store/internal/ratelimit"

	"go.uber.org/zap"
)

// RateLimit applies a general per-client request budget. Store errors fail
// open: a broken limiter must not take the API down with it.
func RateLimit(limiter *ratelimit.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ratelimit.Fingerprint(r)
			ctx := r.Context()

			limited, err := limiter.IsLimited(ctx, key)
			if err != nil {
				logger.Error("Rate limit check failed", zap.Error(err), zap.String("key", key))
				next.ServeHTTP(w, r)
				return
			}

			if limited {
				status, err := limiter.Status(ctx, key)
				if err != nil {
					logger.Error("Rate limit status failed", zap.Error(err))
					next.ServeHTTP(w, r)
					return
				}

				logger.Warn("Rate limit exceeded",
					zap.String("key", key),
					zap.Int("limit", limiter.Max()),
				)

				retryAfter := int(time.Until(status.ResetTime).Seconds())
				if retryAfter < 0 {
					retryAfter = 0
				}

				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Max()))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(status.ResetTime.Unix(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				RespondWithErrorDetails(w, http.StatusTooManyRequests, "rate limit exceeded", map[string]interface{}{
					"resetTime": status.ResetTime,
				})
				return
			}

			if err := limiter.RecordAttempt(ctx, key); err != nil {
				logger.Error("Failed to record rate limit attempt", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			status, err := limiter.Status(ctx, key)
			if err == nil {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Max()))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(status.Remaining))
			}

			next.ServeHTTP(w, r)
		})
	}
}
