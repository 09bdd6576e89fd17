package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mwhitfield/gatehouse/internal/database"
	"github.com/mwhitfield/gatehouse/internal/models"
)

// LoginAttemptRepository persists the audit trail of login attempts.
// It is not consulted for lockout decisions; those are made by the
// in-memory tracker.
type LoginAttemptRepository struct {
	db *database.DB
}

// NewLoginAttemptRepository creates a new LoginAttemptRepository
func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

// RecordAttempt records a login attempt in the database
func (r *LoginAttemptRepository) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.AttemptTime.IsZero() {
		attempt.AttemptTime = time.Now()
	}

	query := `
		INSERT INTO login_attempts (id, email, ip_address, user_agent, attempt_time, success, failure_reason, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		attempt.ID,
		attempt.Email,
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.AttemptTime,
		attempt.Success,
		attempt.FailureReason,
		attempt.ExpiresAt,
	)

	return err
}

// GetFailedAttemptCount returns the number of failed attempts for an email within a time window
func (r *LoginAttemptRepository) GetFailedAttemptCount(ctx context.Context, email string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM login_attempts
		WHERE email = $1 AND success = false AND attempt_time >= $2
	`

	var count int
	err := r.db.Pool.QueryRow(ctx, query, email, since).Scan(&count)
	return count, err
}

// GetLastSuccessTime returns the timestamp of the most recent successful login for an email
func (r *LoginAttemptRepository) GetLastSuccessTime(ctx context.Context, email string) (*time.Time, error) {
	query := `
		SELECT attempt_time FROM login_attempts
		WHERE email = $1 AND success = true
		ORDER BY attempt_time DESC
		LIMIT 1
	`

	var successTime time.Time
	err := r.db.Pool.QueryRow(ctx, query, email).Scan(&successTime)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &successTime, nil
}

// DeleteExpiredAttempts removes login attempts older than their expiration time
func (r *LoginAttemptRepository) DeleteExpiredAttempts(ctx context.Context) (int64, error) {
	query := `DELETE FROM login_attempts WHERE expires_at <= CURRENT_TIMESTAMP`
	tag, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
