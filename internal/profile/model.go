package profile

import (
	"time"

	"estate_marketplace_backend/internal/common"

	"github.com/google/uuid"
)

// CollectionName is the change-stream name of profile documents.
const CollectionName = "user_profiles"

// UserProfile is the application-level identity of an account.
type UserProfile struct {
	common.BaseModel
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string    `gorm:"type:varchar(120)" json:"name"`
	Email  string    `gorm:"type:varchar(255);index" json:"email"`
	Avatar string    `gorm:"type:text" json:"avatar"`
}

func (UserProfile) TableName() string { return "user_profiles" }

// NewProfileInput carries the account data a profile is seeded from.
type NewProfileInput struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Avatar string
}

// UpdateProfileRequest is the body of PATCH /profiles/me.
type UpdateProfileRequest struct {
	Name   *string `json:"name" binding:"omitempty,min=1,max=120"`
	Avatar *string `json:"avatar" binding:"omitempty,url"`
}

// ProfileResponse is the public view of a profile.
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

func ToProfileResponse(p *UserProfile) *ProfileResponse {
	if p == nil {
		return nil
	}
	return &ProfileResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		Name:      p.Name,
		Email:     p.Email,
		Avatar:    p.Avatar,
		CreatedAt: p.CreatedAt,
	}
}
