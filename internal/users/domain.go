package users

import (
	"errors"
	"time"
)

// User is a platform account. TenantID is nil for platform-level staff
// (superadmins, support) and set for accounts belonging to one SPPG.
type User struct {
	ID           int64     `json:"id"`
	TenantID     *int64    `json:"tenant_id,omitempty"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("users: email already registered")
	// ErrScopeMismatch indicates an attempt to hand a user a role owned by a
	// different tenant.
	ErrScopeMismatch = errors.New("users: role scope does not match user scope")
)

// CreateRequest carries the input for registering a user.
type CreateRequest struct {
	TenantID *int64 `json:"tenant_id"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=3,max=120"`
	Password string `json:"password" validate:"required,min=10"`
}
