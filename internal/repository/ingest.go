package repository

import (
	"context"
	"time"

	"github.com/studysync/sync-server-go/internal/config"
	"github.com/studysync/sync-server-go/internal/database"
	"github.com/studysync/sync-server-go/internal/model"
)

type IngestRepository interface {
	CreateRun(ctx context.Context, params model.CreateIngestRunParams) (*model.IngestRun, error)
	FindRunByID(ctx context.Context, id string) (*model.IngestRun, error)
	ListRunsByUser(ctx context.Context, userID string, limit int) ([]model.IngestRun, error)
	UpsertUserSummary(ctx context.Context, userID, lastIngestID string) error
	FindUserSummary(ctx context.Context, userID string) (*model.UserSummary, error)
	DeleteOldRuns(ctx context.Context) (int64, error)
}

type ingestRepo struct {
	db database.DBTX
}

func NewIngestRepository(db database.DBTX) IngestRepository {
	return &ingestRepo{db: db}
}

func (r *ingestRepo) CreateRun(ctx context.Context, params model.CreateIngestRunParams) (*model.IngestRun, error) {
	var run model.IngestRun
	err := r.db.GetContext(ctx, &run, `
		INSERT INTO ingest_runs (id, user_id, source, captured_at, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.ID, params.UserID, params.Source, params.CapturedAt, params.Payload)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *ingestRepo) FindRunByID(ctx context.Context, id string) (*model.IngestRun, error) {
	var run model.IngestRun
	err := r.db.GetContext(ctx, &run, `
		SELECT * FROM ingest_runs WHERE id = $1
	`, id)
	return HandleNotFound(&run, err)
}

func (r *ingestRepo) ListRunsByUser(ctx context.Context, userID string, limit int) ([]model.IngestRun, error) {
	var runs []model.IngestRun
	err := r.db.SelectContext(ctx, &runs, `
		SELECT * FROM ingest_runs
		WHERE user_id = $1
		ORDER BY received_at DESC
		LIMIT $2
	`, userID, limit)
	return runs, err
}

func (r *ingestRepo) UpsertUserSummary(ctx context.Context, userID, lastIngestID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_summaries (user_id, last_sync_at, last_ingest_id, extension_paired)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (user_id) DO UPDATE SET
			last_sync_at = EXCLUDED.last_sync_at,
			last_ingest_id = EXCLUDED.last_ingest_id,
			extension_paired = TRUE
	`, userID, time.Now(), lastIngestID)
	return err
}

func (r *ingestRepo) FindUserSummary(ctx context.Context, userID string) (*model.UserSummary, error) {
	var summary model.UserSummary
	err := r.db.GetContext(ctx, &summary, `
		SELECT * FROM user_summaries WHERE user_id = $1
	`, userID)
	return HandleNotFound(&summary, err)
}

func (r *ingestRepo) DeleteOldRuns(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM ingest_runs WHERE received_at < $1
	`, time.Now().Add(-config.IngestRunRetention))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
