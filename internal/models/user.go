package models

import (
	"time"
)

type User struct {
	ID                string
	Email             string
	PasswordHash      string
	Name              string
	Role              string // "user", "admin"
	Status            string // "active", "suspended", "disabled"
	PasswordChangedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PublicProfile returns the caller-visible view of a user. The password
// hash never leaves the service layer.
type PublicProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (u *User) Profile() *PublicProfile {
	return &PublicProfile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}
