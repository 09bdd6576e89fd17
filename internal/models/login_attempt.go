package models

import "time"

// LoginAttempt is the persisted audit record of a single login attempt.
// Lockout decisions are made by the in-memory tracker; these rows exist
// for observability and forensics only.
type LoginAttempt struct {
	ID            string    `db:"id"`
	Email         string    `db:"email"`
	IPAddress     string    `db:"ip_address"`
	UserAgent     string    `db:"user_agent"`
	AttemptTime   time.Time `db:"attempt_time"`
	Success       bool      `db:"success"`
	FailureReason *string   `db:"failure_reason"`
	ExpiresAt     time.Time `db:"expires_at"`
}
