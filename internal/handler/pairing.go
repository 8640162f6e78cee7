package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/studysync/sync-server-go/internal/audit"
	apperrors "github.com/studysync/sync-server-go/internal/errors"
	"github.com/studysync/sync-server-go/internal/identity"
	"github.com/studysync/sync-server-go/internal/model"
	"github.com/studysync/sync-server-go/internal/service"
)

type PairingHandler struct {
	pairingService   *service.PairingService
	enableDevConfirm bool
}

func NewPairingHandler(pairingService *service.PairingService, enableDevConfirm bool) *PairingHandler {
	return &PairingHandler{
		pairingService:   pairingService,
		enableDevConfirm: enableDevConfirm,
	}
}

func (h *PairingHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/request", h.Request)
	r.Post("/confirm", h.Confirm)
	r.Get("/status", h.Status)

	// The unverified confirm path only exists outside production.
	if h.enableDevConfirm {
		r.Post("/confirm-dev", h.ConfirmDev)
	}

	return r
}

// Request issues a fresh pairing code for an unauthenticated device.
func (h *PairingHandler) Request(w http.ResponseWriter, r *http.Request) {
	grant, err := h.pairingService.RequestCode(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to issue pairing code")
		writeFail(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventCodeIssued})

	writeOK(w, map[string]any{
		"pairCode":  grant.Code,
		"expiresAt": formatTime(grant.ExpiresAt),
	})
}

// Confirm pairs a code on behalf of the signed-in user identified by the
// Authorization bearer credential.
func (h *PairingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PairCode string `json:"pairCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	bearer := extractBearer(r)
	deviceToken, err := h.pairingService.Confirm(r.Context(), req.PairCode, identity.Verified(bearer))
	if err != nil {
		writeFail(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventPairConfirmed})

	writeOK(w, map[string]any{
		"deviceToken": deviceToken,
	})
}

// ConfirmDev pairs a code for a caller-supplied user ID without identity
// verification. Never mounted in production.
func (h *PairingHandler) ConfirmDev(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PairCode string `json:"pairCode"`
		UID      string `json:"uid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}
	if strings.TrimSpace(req.UID) == "" {
		writeFail(w, apperrors.MissingRequired("uid"))
		return
	}

	deviceToken, err := h.pairingService.Confirm(r.Context(), req.PairCode, identity.Trusted(req.UID))
	if err != nil {
		writeFail(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventPairConfirmDev, UserID: req.UID})

	writeOK(w, map[string]any{
		"deviceToken": deviceToken,
	})
}

// Status reports the state of a pairing code. Safe to poll; the device token
// only appears once the record is paired.
func (h *PairingHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.pairingService.Status(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		writeFail(w, err)
		return
	}

	if st.State == model.PairStatePaired {
		writeOK(w, map[string]any{
			"status":      "PAIRED",
			"deviceToken": st.DeviceToken,
		})
		return
	}
	writeOK(w, map[string]any{
		"status": "PENDING",
	})
}

func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
