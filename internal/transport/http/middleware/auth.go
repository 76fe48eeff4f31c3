package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"warbler/internal/httputil"
	"warbler/internal/logging"
	"warbler/internal/model"
	"warbler/internal/session"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// CurrentUserKey is the context key for the logged-in *model.User
	CurrentUserKey contextKey = "current_user"
)

var logger = logging.Component("auth")

// TokenParser verifies bearer tokens.
type TokenParser interface {
	ParseToken(token string) (int64, error)
}

// UserLoader looks a user up by id.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// LoadCurrentUser resolves the current user for every request.
// Checks the Authorization header first (API clients), then falls back to the
// session cookie (browsers). Requests without either stay anonymous.
func LoadCurrentUser(sessions *session.Manager, tokens TokenParser, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				userID    int64
				ok        bool
				fromToken bool
			)

			// 1. Try Authorization header first
			if tokenString := bearerToken(r); tokenString != "" {
				id, err := tokens.ParseToken(tokenString)
				if err != nil {
					if errors.Is(err, model.ErrTokenExpired) {
						httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Access token has expired")
						return
					}
					httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid authentication token")
					return
				}
				userID, ok, fromToken = id, true, true
			}

			// 2. Fall back to the session cookie
			if !ok {
				userID, ok = sessions.UserID(r)
			}

			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, model.ErrUserNotFound) {
					logger.WithError(err).Error("Failed to load current user")
					httputil.WriteInternalError(w, "Failed to load current user")
					return
				}
				if fromToken {
					httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid token claims")
					return
				}
				// account was deleted; drop the stale session
				if err := sessions.Logout(w, r); err != nil {
					logger.WithError(err).Warn("Failed to clear stale session")
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), CurrentUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetCurrentUser returns the logged-in user, if any.
func GetCurrentUser(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(CurrentUserKey).(*model.User)
	return user, ok && user != nil
}

// GetUserIDFromContext extracts the logged-in user's ID from the request context
// Returns the user ID and true if found, or 0 and false if not found
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	user, ok := GetCurrentUser(ctx)
	if !ok {
		return 0, false
	}
	return user.ID, true
}
