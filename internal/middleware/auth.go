package middleware

import (
	"context"
	"net/http"
	"strings"

	"debandi-store/internal/token"

	"go.uber.org/zap"
)

// SessionCookieName is the httpOnly cookie carrying the session token.
const SessionCookieName = "auth-token"

type contextKey string

const claimsKey contextKey = "claims"

// ExtractToken pulls the session token from the request: the httpOnly
// cookie first, then the Authorization bearer header.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// Auth validates the session token and stores its claims in the request
// context. Requests without a valid token are rejected with 401.
func Auth(tokens *token.Manager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r)
			if tokenString == "" {
				logger.Debug("Missing session token")
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				logger.Debug("Token verification failed", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)

			logger.Debug("User authenticated",
				zap.Int64("user_id", claims.UserID),
				zap.Bool("is_admin", claims.IsAdmin),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims extracts the verified token claims from the request context.
func GetClaims(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*token.Claims)
	return claims, ok
}
