package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/xelth-com/sisifo/internal/models"
	"github.com/xelth-com/sisifo/internal/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

// UserLookup resolves the user a token was issued to
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware verifies the bearer JWT and loads the active user into the
// request context
func AuthMiddleware(secret string, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, msg)
				return
			}

			userID, err := utils.UserIDFromToken(token, secret, utils.TokenTypeAccess)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "User not found")
				return
			}
			if !user.IsActive {
				writeError(w, http.StatusUnauthorized, "User is disabled")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header. Browsers
// cannot set headers on websocket upgrades, so those may pass access_token
// in the query string instead.
func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			if token := r.URL.Query().Get("access_token"); token != "" {
				return token, ""
			}
		}
		return "", "Authorization header required"
	}

	// Bearer token
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "Invalid authorization header format"
	}
	return parts[1], ""
}

// RequireRole rejects users whose role is not listed. Must run after AuthMiddleware.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "Insufficient permissions")
		})
	}
}

// GetUserFromContext retrieves the authenticated user from request context
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}
