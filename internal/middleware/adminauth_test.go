package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAdminAuthMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open-sesame"), bcrypt.MinCost)
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("passes a valid password through", func(t *testing.T) {
		handler := NewAdminAuthMiddleware(string(hash)).Handler(next)

		req := httptest.NewRequest(http.MethodGet, "/admin/devices", nil)
		req.Header.Set("X-Admin-Password", "open-sesame")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		handler := NewAdminAuthMiddleware(string(hash)).Handler(next)

		req := httptest.NewRequest(http.MethodGet, "/admin/devices", nil)
		req.Header.Set("X-Admin-Password", "wrong")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a missing password", func(t *testing.T) {
		handler := NewAdminAuthMiddleware(string(hash)).Handler(next)

		req := httptest.NewRequest(http.MethodGet, "/admin/devices", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("surface stays closed when unconfigured", func(t *testing.T) {
		handler := NewAdminAuthMiddleware("").Handler(next)

		req := httptest.NewRequest(http.MethodGet, "/admin/devices", nil)
		req.Header.Set("X-Admin-Password", "anything")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
