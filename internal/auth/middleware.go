package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/adityakr/videotube-be/internal/models"
)

type contextKey string

// userContextKey is the context key for the resolved current user.
const userContextKey = contextKey("currentUser")

// AccessTokenCookie is the cookie carrying the access token.
const AccessTokenCookie = "accessToken"

// RefreshTokenCookie is the cookie carrying the refresh token.
const RefreshTokenCookie = "refreshToken"

// UserResolver loads the sanitized user a verified token refers to.
type UserResolver interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// RequireAuth builds a middleware that verifies the access token from
// the cookie or Authorization header and injects the resolved user into
// the request context. Requests without a valid token get 401.
func RequireAuth(tm *TokenManager, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				http.Error(w, "missing auth token", http.StatusUnauthorized)
				return
			}

			claims, err := tm.Verify(tokenStr, AccessToken)
			if err != nil {
				http.Error(w, "invalid auth token", http.StatusUnauthorized)
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Token subject no longer exists")
				http.Error(w, "invalid auth token", http.StatusUnauthorized)
				return
			}
			user.Sanitize()

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the user resolved by RequireAuth, if any.
func CurrentUser(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// WithUser returns a context carrying user as the current user. Test
// helper and escape hatch for non-HTTP callers.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func tokenFromRequest(r *http.Request) string {
	// 1. Try the Authorization header
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// 2. Fall back to the cookie
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}
