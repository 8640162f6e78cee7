package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Retention windows for the cleanup job. Expired pending rows keep a grace
// period because confirmation is lenient about expiry; paired rows stay long
// enough for a slow device to finish polling.
const (
	ExpiredPairingGrace    = time.Hour
	PairedPairingRetention = 24 * time.Hour
	IngestRunRetention     = 90 * 24 * time.Hour
)

// Rate limiting for the public pairing endpoints (per IP, sliding window)
const (
	PairRateLimitPerWindow = 30
	PairRateLimitWindow    = time.Minute
)
