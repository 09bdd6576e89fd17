package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/gatehouse/internal/models"
	"github.com/mwhitfield/gatehouse/internal/services"
)

// MockAuthService implements AuthServiceInterface with function fields
type MockAuthService struct {
	LoginFunc          func(ctx context.Context, email, password, ipAddress, userAgent string) (*services.AuthResponse, error)
	RegisterFunc       func(ctx context.Context, email, password, name string) (*services.AuthResponse, error)
	RefreshTokenFunc   func(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	ChangePasswordFunc func(ctx context.Context, userID, currentPassword, newPassword, ipAddress string) error
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*services.AuthResponse, error) {
	return m.LoginFunc(ctx, email, password, ipAddress, userAgent)
}

func (m *MockAuthService) Register(ctx context.Context, email, password, name string) (*services.AuthResponse, error) {
	return m.RegisterFunc(ctx, email, password, name)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	return m.RefreshTokenFunc(ctx, refreshToken)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, ipAddress string) error {
	return m.ChangePasswordFunc(ctx, userID, currentPassword, newPassword, ipAddress)
}

func loginBody(t *testing.T, email, password string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress, userAgent string) (*services.AuthResponse, error) {
			assert.Equal(t, "a@x.com", email)
			return &services.AuthResponse{
				AccessToken:  "access-token",
				RefreshToken: "refresh-token",
				User:         &models.PublicProfile{ID: "user123", Email: email},
			}, nil
		},
	}
	handler := NewAuthHandler(svc, nil)

	r := httptest.NewRequest("POST", "/auth/login", loginBody(t, "a@x.com", "SecurePassword123"))
	w := httptest.NewRecorder()

	handler.Login(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp services.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "user123", resp.User.ID)
}

func TestAuthHandler_Login_NormalizesEmail(t *testing.T) {
	svc := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress, userAgent string) (*services.AuthResponse, error) {
			assert.Equal(t, "a@x.com", email)
			return &services.AuthResponse{User: &models.PublicProfile{}}, nil
		},
	}
	handler := NewAuthHandler(svc, nil)

	r := httptest.NewRequest("POST", "/auth/login", loginBody(t, "  A@X.COM ", "SecurePassword123"))
	w := httptest.NewRecorder()

	handler.Login(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_Login_LockedOutReturns429(t *testing.T) {
	svc := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress, userAgent string) (*services.AuthResponse, error) {
			return nil, models.ErrAccountLocked
		},
	}
	handler := NewAuthHandler(svc, nil)

	r := httptest.NewRequest("POST", "/auth/login", loginBody(t, "a@x.com", "SecurePassword123"))
	w := httptest.NewRecorder()

	handler.Login(w, r)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAuthHandler_Login_InvalidCredentialsReturns401(t *testing.T) {
	svc := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress, userAgent string) (*services.AuthResponse, error) {
			return nil, models.ErrUnauthorized
		},
	}
	handler := NewAuthHandler(svc, nil)

	r := httptest.NewRequest("POST", "/auth/login", loginBody(t, "a@x.com", "WrongPassword1"))
	w := httptest.NewRecorder()

	handler.Login(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication failed")
}

func TestAuthHandler_Login_SuspendedAccountLooksLikeBadCredentials(t *testing.T) {
	svc := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress, userAgent string) (*services.AuthResponse, error) {
			return nil, models.ErrAccountSuspended
		},
	}
	handler := NewAuthHandler(svc, nil)

	r := httptest.NewRequest("POST", "/auth/login", loginBody(t, "a@x.com", "SecurePassword123"))
	w := httptest.NewRecorder()

	handler.Login(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication failed")
	assert.NotContains(t, w.Body.String(), "suspended")
}

func TestAuthHandler_Login_MalformedBody(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{}, nil)

	r := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString("{not-json"))
	w := httptest.NewRecorder()

	handler.Login(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{}, nil)

	r := httptest.NewRequest("POST", "/auth/login", loginBody(t, "not-an-email", "x"))
	w := httptest.NewRecorder()

	handler.Login(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	svc := &MockAuthService{
		RegisterFunc: func(ctx context.Context, email, password, name string) (*services.AuthResponse, error) {
			return nil, models.ErrConflict
		},
	}
	handler := NewAuthHandler(svc, nil)

	body, _ := json.Marshal(RegisterRequest{Email: "a@x.com", Password: "SecurePassword123", Name: "Alice"})
	r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
	w := httptest.NewRecorder()

	handler.Register(w, r)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_RefreshToken_Unauthorized(t *testing.T) {
	svc := &MockAuthService{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
			return nil, models.ErrUnauthorized
		},
	}
	handler := NewAuthHandler(svc, nil)

	body, _ := json.Marshal(RefreshTokenRequest{RefreshToken: "stale-token"})
	r := httptest.NewRequest("POST", "/auth/refresh", bytes.NewBuffer(body))
	w := httptest.NewRecorder()

	handler.RefreshToken(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ChangePassword_RequiresAuthContext(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{}, nil)

	body, _ := json.Marshal(ChangePasswordRequest{CurrentPassword: "Old1", NewPassword: "BrandNewSecret9"})
	r := httptest.NewRequest("POST", "/auth/change-password", bytes.NewBuffer(body))
	w := httptest.NewRecorder()

	handler.ChangePassword(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
