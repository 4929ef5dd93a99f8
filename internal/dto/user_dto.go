package dto

import (
	"time"

	"github.com/labsyncpro/labsync-api/internal/models"
)

// UserResponse serializes a user account.
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ClassID   *uint     `json:"class_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse converts a User model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		Role:      model.Role,
		ClassID:   model.ClassID,
		CreatedAt: model.CreatedAt,
	}
}
