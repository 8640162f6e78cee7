package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/studysync/sync-server-go/internal/audit"
	apperrors "github.com/studysync/sync-server-go/internal/errors"
	"github.com/studysync/sync-server-go/internal/httputil"
	"github.com/studysync/sync-server-go/internal/model"
	"github.com/studysync/sync-server-go/internal/service"
)

// AdminHandler is the operator surface. It speaks the plain error envelope
// rather than the device-facing ok envelope.
type AdminHandler struct {
	deviceService *service.DeviceService
}

func NewAdminHandler(deviceService *service.DeviceService) *AdminHandler {
	return &AdminHandler{deviceService: deviceService}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/devices/revoke", h.RevokeDevice)
	r.Get("/devices", h.ListDevices)

	return r
}

func (h *AdminHandler) RevokeDevice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceToken string `json:"deviceToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	if err := h.deviceService.Revoke(r.Context(), req.DeviceToken); err != nil {
		log.Error().Err(err).Msg("failed to revoke device")
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventDeviceRevoked})

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.deviceService.ListByOwner(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	formatted := make([]map[string]any, len(devices))
	for i, dev := range devices {
		formatted[i] = formatDevice(dev)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": formatted,
		"total":   len(devices),
	})
}

func formatDevice(dev model.Device) map[string]any {
	var lastSeen any
	if dev.LastSeenAt != nil {
		lastSeen = dev.LastSeenAt.UTC().Format(time.RFC3339)
	}
	return map[string]any{
		"ownerUserId": dev.OwnerUserID,
		"revoked":     dev.Revoked,
		"createdAt":   dev.CreatedAt.UTC().Format(time.RFC3339),
		"lastSeenAt":  lastSeen,
	}
}
