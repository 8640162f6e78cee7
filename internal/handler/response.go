package handler

import (
	"net/http"
	"time"

	apperrors "github.com/studysync/sync-server-go/internal/errors"
	"github.com/studysync/sync-server-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

// writeOK wraps a payload in the {"ok":true, ...} envelope the extension and
// frontend expect.
func writeOK(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// writeFail maps a service error onto the {"ok":false, "error":...} envelope
// with the status code derived from the error taxonomy.
func writeFail(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal("An unexpected error occurred")
	}

	writeJSON(w, httputil.StatusFromCode(appErr.Code), map[string]any{
		"ok":    false,
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
