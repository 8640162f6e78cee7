package repository

import (
	"context"
	"time"

	"github.com/studysync/sync-server-go/internal/database"
	"github.com/studysync/sync-server-go/internal/model"
)

type DeviceRepository interface {
	// Register inserts a new device row. Tokens carry ~256 bits of
	// entropy, so no create-if-absent guard is needed here; a duplicate
	// key surfaces as a database error.
	Register(ctx context.Context, token, ownerUserID string) (*model.Device, error)
	FindByToken(ctx context.Context, token string) (*model.Device, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]model.Device, error)
	// Revoke flags the device; returns false when the token is unknown.
	Revoke(ctx context.Context, token string) (bool, error)
	TouchLastSeen(ctx context.Context, token string) error
}

type deviceRepo struct {
	db database.DBTX
}

func NewDeviceRepository(db database.DBTX) DeviceRepository {
	return &deviceRepo{db: db}
}

func (r *deviceRepo) Register(ctx context.Context, token, ownerUserID string) (*model.Device, error) {
	var dev model.Device
	err := r.db.GetContext(ctx, &dev, `
		INSERT INTO devices (token, owner_user_id)
		VALUES ($1, $2)
		RETURNING *
	`, token, ownerUserID)
	if err != nil {
		return nil, err
	}
	return &dev, nil
}

func (r *deviceRepo) FindByToken(ctx context.Context, token string) (*model.Device, error) {
	var dev model.Device
	err := r.db.GetContext(ctx, &dev, `
		SELECT * FROM devices WHERE token = $1
	`, token)
	return HandleNotFound(&dev, err)
}

func (r *deviceRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]model.Device, error) {
	var devices []model.Device
	err := r.db.SelectContext(ctx, &devices, `
		SELECT * FROM devices
		WHERE owner_user_id = $1
		ORDER BY created_at DESC
	`, ownerUserID)
	return devices, err
}

func (r *deviceRepo) Revoke(ctx context.Context, token string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE devices SET revoked = TRUE WHERE token = $1
	`, token)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *deviceRepo) TouchLastSeen(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE devices SET last_seen_at = $2 WHERE token = $1
	`, token, time.Now())
	return err
}
