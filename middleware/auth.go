package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"notes-backend/httputil"
)

type contextKey string

const userIDKey contextKey = "userID"

// TokenParser verifies a bearer token and returns the user id it carries.
type TokenParser interface {
	Parse(token string) (string, error)
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id placed by RequireAuth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's user id in the request context.
func RequireAuth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.WriteMessage(w, http.StatusUnauthorized, "Authorization header missing")
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenStr == authHeader {
				logrus.Debug("Auth Middleware - Bearer prefix missing")
				httputil.WriteMessage(w, http.StatusUnauthorized, "Invalid token format")
				return
			}

			if len(strings.Split(tokenStr, ".")) != 3 {
				logrus.Debug("Auth Middleware - Invalid token format, missing parts")
				httputil.WriteMessage(w, http.StatusUnauthorized, "Invalid token format")
				return
			}

			userID, err := tokens.Parse(tokenStr)
			if err != nil {
				logrus.WithError(err).Debug("Auth Middleware - rejecting token")
				httputil.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
