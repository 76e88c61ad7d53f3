package dto

import (
	"time"

	"github.com/yigit/schooladmin/internal/app/models"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionUser is the user shape returned by login and session check.
type SessionUser struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"userId"`
	Role        models.RoleType `json:"role"`
	DisplayName string          `json:"displayName"`
	Email       *string         `json:"email,omitempty"`
	StudentRef  *string         `json:"studentRef,omitempty"`
}

// NewSessionUser converts a user model for the session endpoints.
func NewSessionUser(u *models.User) SessionUser {
	return SessionUser{
		ID:          u.ID,
		UserID:      u.UserID,
		Role:        u.Role,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		StudentRef:  u.StudentRef,
	}
}

// SessionResponse is returned on successful login and by the session check.
type SessionResponse struct {
	User      SessionUser `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// OTPRequest asks for a one-time password to be issued.
type OTPRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// OTPVerifyRequest checks a code without consuming it.
type OTPVerifyRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Code       string `json:"code" binding:"required,numeric"`
}

// ResetPasswordRequest resets a password with a valid OTP.
type ResetPasswordRequest struct {
	Identifier  string `json:"identifier" binding:"required"`
	Code        string `json:"code" binding:"required,numeric"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}
