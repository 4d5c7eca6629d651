package identity

import (
	"time"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/profile"

	"github.com/google/uuid"
)

const (
	AccountCollection = "accounts"
	SessionCollection = "sessions"
)

// Account is the server-side record of an identity-provider user.
type Account struct {
	common.BaseModel
	FirebaseUID string `gorm:"type:varchar(128);uniqueIndex;not null" json:"-"`
	Email       string `gorm:"type:varchar(255);index" json:"email"`
	Name        string `gorm:"type:varchar(120)" json:"name"`
	Avatar      string `gorm:"type:text" json:"avatar"`
}

func (Account) TableName() string { return "accounts" }

// Session backs one issued token; its id is the token's jti.
type Session struct {
	common.BaseModel
	AccountID uuid.UUID  `gorm:"type:uuid;not null;index" json:"account_id"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

func (Session) TableName() string { return "sessions" }

// Active reports whether s can still authenticate requests at now.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// SignInRequest is the body of POST /auth/session.
type SignInRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type AccountResponse struct {
	ID     uuid.UUID `json:"id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

func ToAccountResponse(a *Account) *AccountResponse {
	if a == nil {
		return nil
	}
	return &AccountResponse{ID: a.ID, Email: a.Email, Name: a.Name, Avatar: a.Avatar}
}

// SignInResult is returned by a successful sign-in.
type SignInResult struct {
	Token     string                   `json:"token"`
	TokenType string                   `json:"token_type"`
	ExpiresAt time.Time                `json:"expires_at"`
	Account   *AccountResponse         `json:"account"`
	Profile   *profile.ProfileResponse `json:"profile"`
}

// Principal is what an authenticated request resolves to.
type Principal struct {
	AccountID uuid.UUID
	SessionID uuid.UUID
	ExpiresAt time.Time
}
