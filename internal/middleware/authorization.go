package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireAdmin ensures the authenticated user carries the administrator
// claim. Must run after Auth.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				logger.Warn("Claims not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if !claims.IsAdmin {
				logger.Warn("Non-admin user attempted to access admin endpoint",
					zap.Int64("user_id", claims.UserID),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
