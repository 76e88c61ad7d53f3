package models

import (
	"time"
)

// User is a login account. Every human actor has exactly one.
type User struct {
	ID          int64      `json:"id" db:"id"`
	UserID      string     `json:"userId" db:"user_id"`
	Email       *string    `json:"email,omitempty" db:"email"`
	Password    string     `json:"-" db:"password"`
	Role        RoleType   `json:"role" db:"role"`
	DisplayName string     `json:"displayName" db:"display_name"`
	StudentRef  *string    `json:"studentRef,omitempty" db:"student_ref"` // studentId linked to student and parent accounts
	IsActive    bool       `json:"isActive" db:"is_active"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// Admin is the profile attached to an admin or super-admin user.
type Admin struct {
	ID          int64     `json:"id" db:"id"`
	UserRef     int64     `json:"userRef" db:"user_ref"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	Mobile      string    `json:"mobile" db:"mobile"`
	Designation string    `json:"designation" db:"designation"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	User        *User     `json:"user,omitempty"`
}
