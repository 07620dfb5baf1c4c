package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/destinpq/groow-sub007/internal/domain/identity"
)

// LoginInput carries credentials from the login endpoint
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,min=1,max=72"`
}

// RefreshRequest is the refresh body
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LogoutInput identifies the session to revoke
type LogoutInput struct {
	UserID       uuid.UUID
	AccessJTI    string
	AccessTTL    time.Duration
	RefreshToken string
	AllSessions  bool
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// TokenResult is returned by login and refresh
type TokenResult struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	ExpiresIn             int64     `json:"expiresIn"`
	TokenType             string    `json:"tokenType"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	User                  *UserInfo `json:"user,omitempty"`
}

// ToUserInfo converts a domain user
func ToUserInfo(u *identity.User) *UserInfo {
	return &UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
