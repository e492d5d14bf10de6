package dto

import (
	"time"

	"github.com/gab-cat/auth-gateway/internal/auth/domain"
)

type UserOutput struct {
	ID              string        `json:"id"`
	Email           string        `json:"email"`
	Roles           []domain.Role `json:"roles"`
	HasRefreshToken bool          `json:"has_refresh_token"`
	CreatedAt       time.Time     `json:"created_at"`
}

type MessageResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}
