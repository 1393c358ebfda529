package dto

import "time"

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreatePersonRequest payload for POST /people.
type CreatePersonRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Name     string `json:"name" validate:"required,max=128"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=MEMBER ADMIN"`
}

// UpdatePersonRequest payload for PATCH /people/:id. Omitted fields are kept.
type UpdatePersonRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=128"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Role   *string `json:"role" validate:"omitempty,oneof=MEMBER ADMIN"`
	Active *bool   `json:"active"`
}

// ChangePasswordRequest payload for PATCH /people/me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,nefield=CurrentPassword"`
}

// PersonResponse is the public view of a roster member.
type PersonResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"is_admin"`
	Active   bool   `json:"active"`
}
