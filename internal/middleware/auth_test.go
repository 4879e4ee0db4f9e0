package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signcast/server/internal/models"
)

type fakeAuthenticator struct {
	screens map[string]*models.Screen
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, token string) (*models.Screen, error) {
	return f.screens[token], nil
}

func approvedScreen(id string) *models.Screen {
	principal := "principal-" + id
	return &models.Screen{
		ID:             id,
		Name:           "Screen " + id,
		ApprovalStatus: models.ApprovalApproved,
		PrincipalID:    &principal,
	}
}

func TestScreenAuth(t *testing.T) {
	auth := &fakeAuthenticator{screens: map[string]*models.Screen{
		"good-token": approvedScreen("s1"),
		"pending-token": {
			ID:             "s2",
			ApprovalStatus: models.ApprovalPending,
		},
	}}

	var captured *models.Screen
	handler := ScreenAuth(auth, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetScreenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("accepts bearer header", func(t *testing.T) {
		captured = nil
		req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		assert.Equal(t, "s1", captured.ID)
	})

	t.Run("accepts token query parameter", func(t *testing.T) {
		captured = nil
		req := httptest.NewRequest(http.MethodGet, "/ws?token=good-token", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects unknown token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects unapproved screen", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
		req.Header.Set("Authorization", "Bearer pending-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rejects malformed authorization header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
		req.Header.Set("Authorization", "Basic good-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAdminAPIKeyAuth(t *testing.T) {
	handler := AdminAPIKeyAuth("secret-key", "X-API-Key")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("accepts valid key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/screens", nil)
		req.Header.Set("X-API-Key", "secret-key")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/screens", nil)
		req.Header.Set("X-API-Key", "other-key")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects missing key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/screens", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refuses service without configured key", func(t *testing.T) {
		unconfigured := AdminAPIKeyAuth("", "X-API-Key")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/api/screens", nil)
		req.Header.Set("X-API-Key", "anything")
		rec := httptest.NewRecorder()

		unconfigured.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
