package model

import (
	"encoding/json"
	"time"
)

// IngestRun is one batch of course data uploaded by a paired extension.
// CapturedAt is kept as the client-supplied string; only ReceivedAt is
// server time.
type IngestRun struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"userId"`
	Source        string          `db:"source" json:"source"`
	CapturedAt    string          `db:"captured_at" json:"capturedAt"`
	Payload       json.RawMessage `db:"payload" json:"payload,omitempty"`
	SchemaVersion int             `db:"schema_version" json:"schemaVersion"`
	ReceivedAt    time.Time       `db:"received_at" json:"receivedAt"`
}

type CreateIngestRunParams struct {
	ID         string
	UserID     string
	Source     string
	CapturedAt string
	Payload    json.RawMessage
}

// UserSummary is the per-user dashboard row maintained on every ingest.
type UserSummary struct {
	UserID          string    `db:"user_id" json:"userId"`
	LastSyncAt      time.Time `db:"last_sync_at" json:"lastSyncAt"`
	LastIngestID    *string   `db:"last_ingest_id" json:"lastIngestId,omitempty"`
	ExtensionPaired bool      `db:"extension_paired" json:"extensionPaired"`
}
