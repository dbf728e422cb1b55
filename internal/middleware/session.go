package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	SessionIDKey contextKey = "session_id"

	// SessionHeader carries the session id on requests and responses
	SessionHeader = "X-Session-ID"
	// SessionCookie is the cookie fallback for browsers
	SessionCookie = "session_id"
)

const sessionIDRule = "required,min=8,max=128,sessionid"

// validSessionID reports whether a client-supplied id may be reused
func validSessionID(id string) bool {
	return validate.Var(id, sessionIDRule) == nil
}

// SessionMiddleware resolves the cart session of a request from the
// X-Session-ID header or the session_id cookie. Requests without a usable id
// get a fresh one, returned in both the header and the cookie.
func SessionMiddleware(secureCookie bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get(SessionHeader)
			if sessionID == "" {
				if cookie, err := r.Cookie(SessionCookie); err == nil {
					sessionID = cookie.Value
				}
			}

			if !validSessionID(sessionID) {
				if sessionID != "" {
					logger.Debug("Rejected malformed session id", zap.Int("length", len(sessionID)))
				}
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sessionID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}

			w.Header().Set(SessionHeader, sessionID)

			ctx := context.WithValue(r.Context(), SessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionID extracts the session id from request context
func GetSessionID(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(SessionIDKey).(string)
	return sessionID, ok
}
