package tenants

import (
	"errors"
	"time"
)

// Tenant statuses.
const (
	StatusPending   = "PENDING"
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

// Tenant represents an SPPG unit, the boundary of data isolation for
// tenant-scoped roles and everything downstream of them.
type Tenant struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Region       string    `json:"region"`
	ContactEmail string    `json:"contact_email"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates the tenant does not exist.
	ErrNotFound = errors.New("tenants: not found")
	// ErrCodeTaken indicates the tenant code is already registered.
	ErrCodeTaken = errors.New("tenants: code already registered")
)

// OnboardRequest carries the input for creating a new SPPG.
type OnboardRequest struct {
	Name         string `json:"name" validate:"required,min=3,max=120"`
	Code         string `json:"code" validate:"omitempty,min=3,max=40"`
	Region       string `json:"region" validate:"required,min=2,max=80"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
}
