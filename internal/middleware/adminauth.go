package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/studysync/sync-server-go/internal/audit"
	"github.com/studysync/sync-server-go/internal/util"
)

const adminPasswordHeader = "X-Admin-Password"

// AdminAuthMiddleware guards the administrative surface with a bcrypt-hashed
// password. With no hash configured the surface stays closed rather than
// open.
type AdminAuthMiddleware struct {
	passwordHash string
}

func NewAdminAuthMiddleware(passwordHash string) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{passwordHash: passwordHash}
}

func (m *AdminAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.passwordHash == "" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "Admin surface is not configured",
			})
			return
		}

		password := r.Header.Get(adminPasswordHeader)
		if password == "" || !util.CheckPasswordHash(password, m.passwordHash) {
			log.Warn().Msg("admin auth: invalid password attempt")
			audit.LogFromRequest(r, audit.Event{Type: audit.EventAuthFailure})
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid admin credentials",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
