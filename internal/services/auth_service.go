package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mwhitfield/gatehouse/internal/auth"
	"github.com/mwhitfield/gatehouse/internal/models"
	pkgauth "github.com/mwhitfield/gatehouse/pkg/auth"
	pkglogger "github.com/mwhitfield/gatehouse/pkg/logger"
)

// AttemptTracker is the in-memory failed-login counter consulted and
// mutated by Login. The login email is the tracking identifier.
type AttemptTracker interface {
	Locked(identifier string) bool
	FailureCount(identifier string) int
	RecordFailure(identifier string)
	RecordSuccess(identifier string)
}

// AttemptRecorder persists the login attempt audit trail
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error
}

// AuthService handles authentication business logic
type AuthService struct {
	repo        UserRepository
	tracker     AttemptTracker
	attempts    AttemptRecorder
	tm          *auth.TokenManager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	attemptTTL  time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repo UserRepository,
	tracker AttemptTracker,
	attempts AttemptRecorder,
	tm *auth.TokenManager,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	attemptTTL time.Duration,
) *AuthService {
	return &AuthService{
		repo:        repo,
		tracker:     tracker,
		attempts:    attempts,
		tm:          tm,
		logger:      logger,
		auditLogger: auditLogger,
		attemptTTL:  attemptTTL,
	}
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	AccessToken  string                `json:"access_token"`
	RefreshToken string                `json:"refresh_token"`
	User         *models.PublicProfile `json:"user"`
}

// Login authenticates a user and returns tokens.
//
// Order matters: the lockout check runs before any credential store
// access, so a locked identifier neither loads the store nor leaks
// whether the supplied password would have been valid. Unknown email
// and wrong password are indistinguishable to the caller. A lookup
// that fails for infrastructure reasons records no failed attempt.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*AuthResponse, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		s.logger.Warn("login attempt with empty email")
		return nil, models.ErrUnauthorized
	}

	if s.tracker.Locked(email) {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_rejected",
			IPAddress:     ipAddress,
			FailureReason: "locked_out",
			Success:       false,
		})
		s.recordAttempt(ctx, email, ipAddress, userAgent, false, "locked_out")
		return nil, models.ErrAccountLocked
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.failLogin(ctx, email, ipAddress, userAgent, "", "invalid_credentials")
		}
		// Lookup never completed; do not punish the user for an outage
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := validateAccountState(user); err != nil {
		s.logger.Info("login blocked due to account state",
			slog.String("user_id", user.ID),
			slog.String("status", user.Status))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "account_blocked",
			Success:       false,
		})
		return nil, err
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, s.failLogin(ctx, email, ipAddress, userAgent, user.ID, "invalid_credentials")
	}

	s.tracker.RecordSuccess(email)
	s.recordAttempt(ctx, email, ipAddress, userAgent, true, "")

	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Profile(),
	}, nil
}

// failLogin records a verification failure: exactly one tracker
// increment plus an audit row, then the generic credentials error.
func (s *AuthService) failLogin(ctx context.Context, email, ipAddress, userAgent, userID, reason string) error {
	s.tracker.RecordFailure(email)

	// Locked flips exactly when the count reaches the threshold, and
	// later attempts short-circuit before reaching this path, so the
	// transition is logged once per lockout episode.
	if s.tracker.Locked(email) {
		s.auditLogger.LogLockout(email, ipAddress, s.tracker.FailureCount(email))
	}

	s.logger.Info("login failed: invalid credentials")
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        userID,
		IPAddress:     ipAddress,
		FailureReason: reason,
		Success:       false,
	})

	s.recordAttempt(ctx, email, ipAddress, userAgent, false, reason)

	return models.ErrUnauthorized
}

// recordAttempt persists an audit row best-effort; audit storage
// problems must not change the login outcome.
func (s *AuthService) recordAttempt(ctx context.Context, email, ipAddress, userAgent string, success bool, reason string) {
	attempt := &models.LoginAttempt{
		Email:     email,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   success,
		ExpiresAt: time.Now().Add(s.attemptTTL),
	}
	if reason != "" {
		attempt.FailureReason = &reason
	}

	if err := s.attempts.RecordAttempt(ctx, attempt); err != nil {
		s.logger.Error("failed to persist login attempt", slog.Any("error", err))
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("registration failed: user already exists")
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check if user exists", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now()
	user := &models.User{
		Email:             email,
		PasswordHash:      hashedPassword,
		Name:              name,
		Role:              "user",
		PasswordChangedAt: &now,
	}

	createdUser, err := s.repo.Create(ctx, user)
	if err != nil {
		s.logger.Error("failed to create user", slog.Any("error", err))
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", createdUser.ID))
	s.auditLogger.LogAccountAction("user_registered", createdUser.ID, "", nil)

	return &AuthResponse{User: createdUser.Profile()}, nil
}

// RefreshToken generates a new token pair from a refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenString string) (*AuthResponse, error) {
	if refreshTokenString = strings.TrimSpace(refreshTokenString); refreshTokenString == "" {
		return nil, models.ErrUnauthorized
	}

	claims, err := s.tm.ValidateToken(refreshTokenString)
	if err != nil {
		s.logger.Info("refresh token validation failed", slog.Any("error", err))
		return nil, models.ErrUnauthorized
	}

	if claims.Type != "refresh" {
		s.logger.Warn("refresh attempt with non-refresh token", slog.String("user_id", claims.UserID))
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found for token refresh", slog.String("user_id", claims.UserID))
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for token refresh", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := validateAccountState(user); err != nil {
		s.logger.Info("token refresh blocked due to account state",
			slog.String("user_id", user.ID),
			slog.String("status", user.Status))
		return nil, models.ErrUnauthorized
	}

	// Invalidate tokens issued before the last password change
	if user.PasswordChangedAt != nil && claims.IssuedAt != nil {
		if claims.IssuedAt.Time.Before(*user.PasswordChangedAt) {
			s.logger.Info("token refresh blocked: issued before password change",
				slog.String("user_id", user.ID))
			return nil, models.ErrUnauthorized
		}
	}

	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	newRefreshToken, err := s.tm.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("token refreshed", slog.String("user_id", user.ID))

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		User:         user.Profile(),
	}, nil
}

// ChangePassword replaces a user's password after verifying the
// current one. Not subject to the login lockout; it already requires
// an authenticated session plus the current password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, ipAddress string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for password change", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		s.auditLogger.LogPasswordChange(userID, ipAddress, false)
		return models.ErrUnauthorized
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		s.logger.Error("failed to update password", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogPasswordChange(userID, ipAddress, true)
	return nil
}

// validateAccountState checks if user account is in valid state for authentication
func validateAccountState(user *models.User) error {
	switch user.Status {
	case "disabled":
		return models.ErrAccountDisabled
	case "suspended":
		return models.ErrAccountSuspended
	case "active":
		return nil
	default:
		return fmt.Errorf("unknown account status: %s", user.Status)
	}
}
