package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/studysync/sync-server-go/internal/database"
	apperrors "github.com/studysync/sync-server-go/internal/errors"
	"github.com/studysync/sync-server-go/internal/model"
	"github.com/studysync/sync-server-go/internal/repository"
)

// txRunner is the slice of *database.DB the ingest service needs; tests
// substitute a fake so the transactional path can be exercised without
// Postgres.
type txRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

type RecordParams struct {
	DeviceToken string
	Source      string
	CapturedAt  string
	Courses     json.RawMessage
}

type RecordResult struct {
	UserID string
	RunID  string
}

// IngestService accepts authenticated device writes. The device token is an
// opaque bearer credential resolved through the device registry; revoked
// devices are rejected before anything is written.
type IngestService struct {
	db      txRunner
	devices repository.DeviceRepository
}

func NewIngestService(db *database.DB, devices repository.DeviceRepository) *IngestService {
	return &IngestService{db: db, devices: devices}
}

func (s *IngestService) Record(ctx context.Context, params RecordParams) (*RecordResult, error) {
	token := strings.TrimSpace(params.DeviceToken)
	if token == "" {
		return nil, apperrors.MissingRequired("deviceToken")
	}

	dev, err := s.devices.FindByToken(ctx, token)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if dev == nil {
		return nil, apperrors.Unauthorized("Invalid device token")
	}
	if dev.Revoked {
		return nil, apperrors.DeviceRevoked()
	}

	runID := uuid.NewString()

	// The run row, the owner's summary row, and the device's last-seen
	// stamp land together or not at all.
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		runs := repository.NewIngestRepository(tx)
		if _, err := runs.CreateRun(ctx, model.CreateIngestRunParams{
			ID:         runID,
			UserID:     dev.OwnerUserID,
			Source:     params.Source,
			CapturedAt: params.CapturedAt,
			Payload:    params.Courses,
		}); err != nil {
			return err
		}
		if err := runs.UpsertUserSummary(ctx, dev.OwnerUserID, runID); err != nil {
			return err
		}
		return repository.NewDeviceRepository(tx).TouchLastSeen(ctx, token)
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("userId", dev.OwnerUserID).
		Str("runId", runID).
		Str("source", params.Source).
		Msg("ingest recorded")

	return &RecordResult{UserID: dev.OwnerUserID, RunID: runID}, nil
}
