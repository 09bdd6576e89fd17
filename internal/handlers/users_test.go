package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/gatehouse/internal/models"
)

// MockUserService implements UserServiceInterface with function fields
type MockUserService struct {
	GetUserByIDFunc func(ctx context.Context, id string) (*models.User, error)
	ListUsersFunc   func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateUserFunc  func(ctx context.Context, user *models.User, password string) (*models.User, error)
	UpdateUserFunc  func(ctx context.Context, id string, user *models.User) (*models.User, error)
	DeleteUserFunc  func(ctx context.Context, id string) error
}

func (m *MockUserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return m.GetUserByIDFunc(ctx, id)
}

func (m *MockUserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return m.ListUsersFunc(ctx, limit, offset)
}

func (m *MockUserService) CreateUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	return m.CreateUserFunc(ctx, user, password)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id string, user *models.User) (*models.User, error) {
	return m.UpdateUserFunc(ctx, id, user)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id string) error {
	return m.DeleteUserFunc(ctx, id)
}

// newUserRouter mounts the handler on a chi router so URL params resolve
func newUserRouter(handler *UserHandler) *chi.Mux {
	router := chi.NewRouter()
	router.Get("/users", handler.ListUsers)
	router.Post("/users", handler.CreateUser)
	router.Get("/users/{id}", handler.GetUser)
	router.Put("/users/{id}", handler.UpdateUser)
	router.Delete("/users/{id}", handler.DeleteUser)
	return router
}

func testUser(id, email string) *models.User {
	return &models.User{
		ID:     id,
		Email:  email,
		Name:   "Test User",
		Role:   "user",
		Status: "active",
	}
}

func TestUserHandler_GetUser(t *testing.T) {
	svc := &MockUserService{
		GetUserByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if id == "user123" {
				u := testUser("user123", "a@x.com")
				u.PasswordHash = "$2a$12$secret"
				return u, nil
			}
			return nil, models.ErrNotFound
		},
	}
	router := newUserRouter(NewUserHandler(svc))

	r := httptest.NewRequest("GET", "/users/user123", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@x.com")
	assert.NotContains(t, w.Body.String(), "secret", "hash must never be serialized")
}

func TestUserHandler_GetUser_NotFound(t *testing.T) {
	svc := &MockUserService{
		GetUserByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
	}
	router := newUserRouter(NewUserHandler(svc))

	r := httptest.NewRequest("GET", "/users/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserHandler_ListUsers_PaginationDefaults(t *testing.T) {
	var gotLimit, gotOffset int
	svc := &MockUserService{
		ListUsersFunc: func(ctx context.Context, limit, offset int) ([]*models.User, error) {
			gotLimit, gotOffset = limit, offset
			return []*models.User{testUser("user123", "a@x.com")}, nil
		},
	}
	router := newUserRouter(NewUserHandler(svc))

	r := httptest.NewRequest("GET", "/users", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultListLimit, gotLimit)
	assert.Equal(t, 0, gotOffset)

	var resp ListUsersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Users, 1)
}

func TestUserHandler_ListUsers_ClampsExcessiveLimit(t *testing.T) {
	var gotLimit int
	svc := &MockUserService{
		ListUsersFunc: func(ctx context.Context, limit, offset int) ([]*models.User, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	router := newUserRouter(NewUserHandler(svc))

	r := httptest.NewRequest("GET", "/users?limit=5000", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultListLimit, gotLimit)
}

func TestUserHandler_CreateUser(t *testing.T) {
	svc := &MockUserService{
		CreateUserFunc: func(ctx context.Context, user *models.User, password string) (*models.User, error) {
			user.ID = "user123"
			return user, nil
		},
	}
	router := newUserRouter(NewUserHandler(svc))

	body, _ := json.Marshal(CreateUserRequest{Email: "a@x.com", Password: "SecurePassword123", Name: "Alice"})
	r := httptest.NewRequest("POST", "/users", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "user123")
}

func TestUserHandler_CreateUser_InvalidRole(t *testing.T) {
	router := newUserRouter(NewUserHandler(&MockUserService{}))

	body, _ := json.Marshal(CreateUserRequest{Email: "a@x.com", Password: "SecurePassword123", Name: "Alice", Role: "superuser"})
	r := httptest.NewRequest("POST", "/users", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandler_DeleteUser(t *testing.T) {
	svc := &MockUserService{
		DeleteUserFunc: func(ctx context.Context, id string) error {
			return nil
		},
	}
	router := newUserRouter(NewUserHandler(svc))

	r := httptest.NewRequest("DELETE", "/users/user123", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
