package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	sessionIDHeader = "X-Session-Id"
	// SessionCookie holds the anonymous cart session set by the storefront.
	SessionCookie   = "sessionId"
	maxSessionIDLen = 128
)

// Session reads the anonymous cart session from the X-Session-Id header or
// the sessionId cookie. Requests without one pass through unchanged.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader))
			if sessionID == "" {
				if cookie, err := r.Cookie(SessionCookie); err == nil {
					sessionID = strings.TrimSpace(cookie.Value)
				}
			}
			if sessionID == "" || len(sessionID) > maxSessionIDLen {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
