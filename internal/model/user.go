package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an account holder
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	FullName     string     `json:"full_name" db:"full_name"`
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	LastSeen     *time.Time `json:"last_seen,omitempty" db:"last_seen"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UpdateProfileRequest represents user profile update parameters
type UpdateProfileRequest struct {
	FullName string  `json:"full_name" validate:"required,min=2,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,phone"`
}
