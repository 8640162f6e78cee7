package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/studysync/sync-server-go/internal/errors"

	"github.com/studysync/sync-server-go/internal/audit"
	"github.com/studysync/sync-server-go/internal/service"
)

type IngestHandler struct {
	ingestService *service.IngestService
}

func NewIngestHandler(ingestService *service.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

type ingestRequest struct {
	DeviceToken string          `json:"deviceToken"`
	Source      string          `json:"source"`
	CapturedAt  string          `json:"capturedAt"`
	Courses     json.RawMessage `json:"courses"`
}

// Ingest accepts a batch of captured course data from a paired extension.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	result, err := h.ingestService.Record(r.Context(), service.RecordParams{
		DeviceToken: req.DeviceToken,
		Source:      req.Source,
		CapturedAt:  req.CapturedAt,
		Courses:     req.Courses,
	})
	if err != nil {
		if code := apperrors.GetCode(err); code == apperrors.ErrCodeUnauthorized || code == apperrors.ErrCodeDeviceRevoked {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventIngestRejected,
				Details: map[string]interface{}{"reason": string(code)},
			})
		}
		writeFail(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventIngestAccepted, UserID: result.UserID})

	writeOK(w, map[string]any{
		"uid":   result.UserID,
		"runId": result.RunID,
	})
}
