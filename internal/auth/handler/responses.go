package handler

import (
	"time"

	"rehabdocs/internal/auth/models"
	"rehabdocs/internal/auth/service"
)

// LoginResponse is the HTTP response for POST /auth/login.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// UserResponse is the safe projection of a staff account.
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// FromLoginResult converts a login result to an HTTP response.
func FromLoginResult(result *service.LoginResult) *LoginResponse {
	return &LoginResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		User:        *FromUser(result.User),
	}
}

// FromUser converts a user to its response form. The password hash is never
// serialized.
func FromUser(u *models.User) *UserResponse {
	return &UserResponse{
		ID:       u.ID.String(),
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}
