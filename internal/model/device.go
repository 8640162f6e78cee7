package model

import "time"

// Device is a paired browser extension. The token is the natural key and is
// never returned by listing endpoints; OwnerUserID is immutable after
// registration and Revoked is the only field the server mutates afterwards.
type Device struct {
	Token       string     `db:"token" json:"-"`
	OwnerUserID string     `db:"owner_user_id" json:"ownerUserId"`
	Revoked     bool       `db:"revoked" json:"revoked"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	LastSeenAt  *time.Time `db:"last_seen_at" json:"lastSeenAt,omitempty"`
}
