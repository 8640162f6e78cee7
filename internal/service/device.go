package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/studysync/sync-server-go/internal/errors"
	"github.com/studysync/sync-server-go/internal/model"
	"github.com/studysync/sync-server-go/internal/repository"
	"github.com/studysync/sync-server-go/internal/util"
)

// DeviceService backs the administrative surface: revocation is the only
// mutation it exposes, matching the one mutable field on a device record.
type DeviceService struct {
	devices repository.DeviceRepository
}

func NewDeviceService(devices repository.DeviceRepository) *DeviceService {
	return &DeviceService{devices: devices}
}

func (s *DeviceService) Revoke(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.MissingRequired("deviceToken")
	}

	revoked, err := s.devices.Revoke(ctx, token)
	if err != nil {
		return apperrors.Database(err)
	}
	if !revoked {
		return apperrors.NotFound("device")
	}

	log.Info().Str("token", util.MaskToken(token)).Msg("device token revoked")
	return nil
}

func (s *DeviceService) ListByOwner(ctx context.Context, ownerUserID string) ([]model.Device, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return nil, apperrors.MissingRequired("userId")
	}

	devices, err := s.devices.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return devices, nil
}
