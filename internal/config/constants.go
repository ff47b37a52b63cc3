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

// A calendar always has 24 daily slots, December 1st through 24th.
const CalendarDays = 24

// Verification attempt limits. The 4-digit code space is small, so the
// verify endpoint must be throttled per IP and per token.
const (
	VerifyAttemptsPerWindow = 5
	VerifyWindow            = time.Minute
	LoginAttemptsPerWindow  = 5
	LoginWindow             = time.Minute
)
