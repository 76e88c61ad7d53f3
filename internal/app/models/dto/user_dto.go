package dto

import "github.com/yigit/schooladmin/internal/app/models"

// CreateUserRequest creates a login account of any role.
type CreateUserRequest struct {
	UserID      string          `json:"userId" binding:"required,min=3,max=64"`
	Password    string          `json:"password" binding:"required,min=8"`
	Role        models.RoleType `json:"role" binding:"required,oneof=admin super-admin teacher student parent staff"`
	DisplayName string          `json:"displayName" binding:"max=120"`
	Email       *string         `json:"email" binding:"omitempty,email"`
	StudentRef  *string         `json:"studentRef"`
}

// UpdateUserRequest changes account attributes. Absent fields are left as is.
type UpdateUserRequest struct {
	DisplayName *string          `json:"displayName" binding:"omitempty,max=120"`
	Email       *string          `json:"email" binding:"omitempty,email"`
	IsActive    *bool            `json:"isActive"`
	Role        *models.RoleType `json:"role" binding:"omitempty,oneof=admin super-admin teacher student parent staff"`
	StudentRef  *string          `json:"studentRef"`
}

// SetPasswordRequest is an administrative password reset.
type SetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// AdminRequest creates or updates an admin profile with its login account.
type AdminRequest struct {
	UserID      string `json:"userId" binding:"required,min=3,max=64"`
	Password    string `json:"password" binding:"omitempty,min=8"`
	Name        string `json:"name" binding:"required,max=120"`
	Email       string `json:"email" binding:"omitempty,email"`
	Mobile      string `json:"mobile" binding:"omitempty,max=20"`
	Designation string `json:"designation" binding:"max=80"`
	SuperAdmin  bool   `json:"superAdmin"`
}
