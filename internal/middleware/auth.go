package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/signcast/server/internal/models"
	"github.com/signcast/server/internal/observability"
)

type contextKey string

const (
	// ScreenContextKey holds the authenticated screen
	ScreenContextKey contextKey = "screen"
)

// ScreenAuthenticator resolves a bearer token to an approved screen
type ScreenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Screen, error)
}

// GetScreenFromContext retrieves the authenticated screen from request context
func GetScreenFromContext(ctx context.Context) *models.Screen {
	if screen, ok := ctx.Value(ScreenContextKey).(*models.Screen); ok {
		return screen
	}
	return nil
}

// ScreenAuth creates middleware that authenticates screens by bearer token.
// WebSocket handshakes from embedded players cannot always set headers, so a
// token query parameter is accepted as a fallback.
func ScreenAuth(auth ScreenAuthenticator, metrics *observability.FleetMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "Authentication token is required.")
				return
			}

			screen, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				writeAuthError(w, http.StatusInternalServerError, "Internal server error.")
				return
			}

			if metrics != nil {
				metrics.RecordAuthAttempt(r.Context(), screen != nil)
			}

			if screen == nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid authentication token.")
				return
			}

			if !screen.IsApproved() {
				writeAuthError(w, http.StatusForbidden, "Screen is not approved.")
				return
			}

			ctx := context.WithValue(r.Context(), ScreenContextKey, screen)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminAPIKeyAuth creates middleware for admin API key authentication
func AdminAPIKeyAuth(apiKey, headerName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				writeAuthError(w, http.StatusServiceUnavailable, "Admin API is not configured.")
				return
			}

			providedKey := r.Header.Get(headerName)
			if providedKey == "" {
				writeAuthError(w, http.StatusUnauthorized, "API key is required.")
				return
			}

			// Constant-time comparison to prevent timing attacks
			if !constantTimeEquals(apiKey, providedKey) {
				writeAuthError(w, http.StatusUnauthorized, "Invalid API key.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// constantTimeEquals performs a constant-time string comparison
func constantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
