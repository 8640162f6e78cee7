package model

import "time"

type PairState string

const (
	PairStatePending PairState = "pending"
	PairStatePaired  PairState = "paired"
)

// PairingRequest is one pairing attempt, keyed by its code. The state only
// moves forward: pending -> paired. Expiry is derived from ExpiresAt at read
// time; an expired row keeps state 'pending' until the cleanup job removes it.
type PairingRequest struct {
	Code         string     `db:"code" json:"code"`
	State        PairState  `db:"state" json:"state"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	ExpiresAt    time.Time  `db:"expires_at" json:"expiresAt"`
	PairedUserID *string    `db:"paired_user_id" json:"pairedUserId,omitempty"`
	DeviceToken  *string    `db:"device_token" json:"deviceToken,omitempty"`
	PairedAt     *time.Time `db:"paired_at" json:"pairedAt,omitempty"`
}

func (p *PairingRequest) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

type CreatePairingRequestParams struct {
	Code      string
	ExpiresAt time.Time
}
