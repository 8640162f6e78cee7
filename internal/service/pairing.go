package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/studysync/sync-server-go/internal/errors"
	"github.com/studysync/sync-server-go/internal/identity"
	"github.com/studysync/sync-server-go/internal/model"
	"github.com/studysync/sync-server-go/internal/repository"
	"github.com/studysync/sync-server-go/internal/util"
)

// pairCodeAttempts bounds the create-if-absent retry loop. Collisions are
// rare at ~50 bits of entropy, so running out of attempts means the store is
// misbehaving; the caller sees a transient error and retries the whole call.
const pairCodeAttempts = 8

type PairingService struct {
	pairings repository.PairingRepository
	devices  repository.DeviceRepository
	verifier identity.Verifier
	ttl      time.Duration
}

func NewPairingService(
	pairings repository.PairingRepository,
	devices repository.DeviceRepository,
	verifier identity.Verifier,
	ttl time.Duration,
) *PairingService {
	return &PairingService{
		pairings: pairings,
		devices:  devices,
		verifier: verifier,
		ttl:      ttl,
	}
}

// PairingGrant is what a device gets back from RequestCode.
type PairingGrant struct {
	Code      string
	ExpiresAt time.Time
}

// PairingStatus is the poll result. DeviceToken is empty unless paired.
type PairingStatus struct {
	State       model.PairState
	DeviceToken string
}

// RequestCode issues a fresh pending pairing code. Uniqueness is enforced by
// the store's create-if-absent insert, never by a read-then-write.
func (s *PairingService) RequestCode(ctx context.Context) (*PairingGrant, error) {
	expiresAt := time.Now().Add(s.ttl)

	for attempt := 1; attempt <= pairCodeAttempts; attempt++ {
		code, err := util.GeneratePairCode()
		if err != nil {
			return nil, apperrors.Internal("entropy source unavailable").WithCause(err)
		}

		created, err := s.pairings.TryCreatePending(ctx, model.CreatePairingRequestParams{
			Code:      code,
			ExpiresAt: expiresAt,
		})
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if created {
			log.Info().
				Str("code", util.MaskCode(code)).
				Time("expiresAt", expiresAt).
				Msg("pairing code issued")
			return &PairingGrant{Code: code, ExpiresAt: expiresAt}, nil
		}

		log.Warn().Int("attempt", attempt).Msg("pairing code collision, retrying")
	}

	return nil, apperrors.GenerationExhausted()
}

// Confirm binds a pending pairing code to the resolved user and issues the
// device token. At most one token is ever issued per code: the conditional
// update in the store decides the winner of any race, and the loser gets
// ALREADY_PAIRED rather than a second token.
func (s *PairingService) Confirm(ctx context.Context, code string, res identity.Resolution) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", apperrors.MissingRequired("pairCode")
	}

	userID, err := res.Resolve(ctx, s.verifier)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredential) {
			return "", apperrors.Unauthorized("Invalid bearer credential")
		}
		return "", apperrors.External("identity provider", err)
	}

	pr, err := s.pairings.FindByCode(ctx, code)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if pr == nil {
		return "", apperrors.NotFound("pairing code")
	}
	if pr.State == model.PairStatePaired {
		return "", apperrors.AlreadyPaired()
	}
	if pr.Expired(time.Now()) {
		// Expiry only bounds device polling; a user confirming a stale
		// code still succeeds. Logged so the lenient path stays visible.
		log.Warn().Str("code", util.MaskCode(code)).Msg("confirming expired pairing code")
	}

	deviceToken, err := util.GenerateDeviceToken()
	if err != nil {
		return "", apperrors.Internal("entropy source unavailable").WithCause(err)
	}

	if _, err := s.devices.Register(ctx, deviceToken, userID); err != nil {
		return "", apperrors.Database(err)
	}

	result, err := s.pairings.TransitionToPaired(ctx, code, userID, deviceToken)
	if err != nil {
		return "", apperrors.Database(err)
	}

	switch result {
	case repository.TransitionOK:
		log.Info().
			Str("code", util.MaskCode(code)).
			Str("userId", userID).
			Msg("pairing confirmed")
		return deviceToken, nil
	case repository.TransitionAlreadyPaired:
		log.Warn().Str("code", util.MaskCode(code)).Msg("lost pairing race")
		return "", apperrors.AlreadyPaired()
	default:
		return "", apperrors.NotFound("pairing code")
	}
}

// Status is a cheap idempotent read for device polling. It never reveals a
// device token before the record is paired.
func (s *PairingService) Status(ctx context.Context, code string) (*PairingStatus, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperrors.MissingRequired("code")
	}

	pr, err := s.pairings.FindByCode(ctx, code)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if pr == nil {
		return nil, apperrors.NotFound("pairing code")
	}

	if pr.State == model.PairStatePaired && pr.DeviceToken != nil && *pr.DeviceToken != "" {
		return &PairingStatus{State: model.PairStatePaired, DeviceToken: *pr.DeviceToken}, nil
	}
	return &PairingStatus{State: model.PairStatePending}, nil
}
