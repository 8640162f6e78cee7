package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/studysync/sync-server-go/internal/config"
	"github.com/studysync/sync-server-go/internal/database"
	"github.com/studysync/sync-server-go/internal/model"
)

// TransitionResult reports the outcome of the conditional pending->paired
// update.
type TransitionResult int

const (
	TransitionOK TransitionResult = iota
	TransitionNotFound
	TransitionAlreadyPaired
)

type PairingRepository interface {
	// TryCreatePending inserts a pending row only if the code is free.
	// This is the sole collision guard for pairing codes; concurrent
	// callers racing on the same code see exactly one true result.
	TryCreatePending(ctx context.Context, params model.CreatePairingRequestParams) (bool, error)
	FindByCode(ctx context.Context, code string) (*model.PairingRequest, error)
	// TransitionToPaired flips a pending row to paired and stamps the
	// user and device token. A row that is already paired is left
	// untouched and reported as TransitionAlreadyPaired.
	TransitionToPaired(ctx context.Context, code, userID, deviceToken string) (TransitionResult, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type pairingRepo struct {
	db database.DBTX
}

func NewPairingRepository(db database.DBTX) PairingRepository {
	return &pairingRepo{db: db}
}

func (r *pairingRepo) TryCreatePending(ctx context.Context, params model.CreatePairingRequestParams) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO pairing_requests (code, state, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING
	`, params.Code, model.PairStatePending, params.ExpiresAt)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *pairingRepo) FindByCode(ctx context.Context, code string) (*model.PairingRequest, error) {
	var pr model.PairingRequest
	err := r.db.GetContext(ctx, &pr, `
		SELECT * FROM pairing_requests WHERE code = $1
	`, code)
	return HandleNotFound(&pr, err)
}

func (r *pairingRepo) TransitionToPaired(ctx context.Context, code, userID, deviceToken string) (TransitionResult, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE pairing_requests SET
			state = $2,
			paired_user_id = $3,
			device_token = $4,
			paired_at = $5
		WHERE code = $1 AND state = $6
	`, code, model.PairStatePaired, userID, deviceToken, time.Now(), model.PairStatePending)
	if err != nil {
		return TransitionNotFound, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return TransitionNotFound, err
	}
	if rows == 1 {
		return TransitionOK, nil
	}

	// Zero rows: either the code does not exist or someone else won the
	// race. Re-read to tell the two apart.
	var state model.PairState
	err = r.db.GetContext(ctx, &state, `
		SELECT state FROM pairing_requests WHERE code = $1
	`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return TransitionNotFound, nil
	}
	if err != nil {
		return TransitionNotFound, err
	}
	if state == model.PairStatePaired {
		return TransitionAlreadyPaired, nil
	}
	return TransitionNotFound, nil
}

func (r *pairingRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM pairing_requests
		WHERE (state = $1 AND expires_at < $2)
		   OR (state = $3 AND paired_at < $4)
	`,
		model.PairStatePending, time.Now().Add(-config.ExpiredPairingGrace),
		model.PairStatePaired, time.Now().Add(-config.PairedPairingRetention),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
