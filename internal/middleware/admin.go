package middleware

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

// AdminKeyHeader carries the shared admin key
const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey guards admin endpoints with a shared key. An empty
// configured key disables the endpoints altogether.
func RequireAdminKey(apiKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				logger.Warn("Admin endpoint called but no admin key is configured")
				RespondWithError(w, http.StatusForbidden, "admin access disabled")
				return
			}

			provided := r.Header.Get(AdminKeyHeader)
			if provided == "" {
				RespondWithError(w, http.StatusUnauthorized, "missing admin key")
				return
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				logger.Warn("Invalid admin key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
