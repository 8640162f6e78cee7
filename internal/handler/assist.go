package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/studysync/sync-server-go/internal/service"
)

type AssistHandler struct {
	assistService *service.AssistService
}

func NewAssistHandler(assistService *service.AssistService) *AssistHandler {
	return &AssistHandler{assistService: assistService}
}

// Ping forwards a short prompt to the generative text API. Used by the
// frontend to check connectivity and fetch one-off suggestions.
func (h *AssistHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if !h.assistService.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ok":    false,
			"error": "Assist is not configured",
		})
		return
	}

	prompt := r.URL.Query().Get("text")
	if prompt == "" {
		prompt = "ping"
	}

	text, err := h.assistService.Generate(r.Context(), prompt)
	if err != nil {
		log.Error().Err(err).Msg("assist generate failed")
		writeFail(w, err)
		return
	}

	writeOK(w, map[string]any{
		"text": text,
	})
}
