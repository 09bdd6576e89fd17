package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/mwhitfield/gatehouse/internal/auth"
	"github.com/mwhitfield/gatehouse/internal/handlers"
	"github.com/mwhitfield/gatehouse/internal/middleware"
	"github.com/mwhitfield/gatehouse/internal/repositories"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	userHandler *handlers.UserHandler,
	authHandler *handlers.AuthHandler,
	tokenManager *auth.TokenManager,
	userRepo *repositories.UserRepository,
) {
	// Rate limiting config for auth endpoints
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/refresh", authHandler.RefreshToken)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager))

		// Any authenticated user
		r.Get("/users/{id}", userHandler.GetUser)
		r.Put("/users/{id}", userHandler.UpdateUser)

		r.Post("/auth/change-password", authHandler.ChangePassword)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(userRepo, "admin"))
			r.Post("/auth/register", authHandler.Register)
			r.Get("/users", userHandler.ListUsers)
			r.Post("/users", userHandler.CreateUser)
			r.Delete("/users/{id}", userHandler.DeleteUser)
		})
	})
}
