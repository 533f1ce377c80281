package rbac

import (
	"errors"
	"time"
)

// Permission represents an atomic, platform-wide capability. Names follow the
// "<module>.<action>" convention and are the stable identifiers other modules
// persist; the numeric ID is internal to this package.
type Permission struct {
	ID          int64
	Name        string
	Description string
	Module      string
	Action      string
}

// Role is a named bundle of permissions. TenantID is nil for platform-wide
// system roles and set for roles owned by exactly one SPPG. Two tenants may
// each own a role with the same name; those are unrelated rows.
type Role struct {
	ID          int64
	TenantID    *int64
	Name        string
	Description string
	System      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SameScope reports whether the role is scoped to the given tenant.
// A nil tenantID matches system roles only.
func (r Role) SameScope(tenantID *int64) bool {
	if r.TenantID == nil || tenantID == nil {
		return r.TenantID == nil && tenantID == nil
	}
	return *r.TenantID == *tenantID
}

// RolePermission records that a role holds a permission.
type RolePermission struct {
	RoleID       int64
	PermissionID int64
	CreatedAt    time.Time
}

// PermissionDefinition is a catalog entry before it is persisted.
type PermissionDefinition struct {
	Module      string
	Action      string
	Description string
}

// Name returns the canonical "<module>.<action>" permission name.
func (d PermissionDefinition) Name() string {
	return d.Module + "." + d.Action
}

// RoleTemplate is static configuration describing a role archetype. Tenant
// templates are materialized into per-tenant roles at provisioning time;
// system templates are materialized once at platform bootstrap. Templates
// reference permissions by name so they can be authored independently of
// storage identity; a missing name surfaces at grant time, not here.
type RoleTemplate struct {
	Name        string
	Description string
	Permissions []string
}

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrTenantNotFound indicates provisioning was requested for an unknown tenant.
	ErrTenantNotFound = errors.New("rbac: tenant not found")
	// ErrConflict indicates a uniqueness violation the caller did not intend.
	ErrConflict = errors.New("rbac: conflict")
	// ErrInvalidTemplate indicates a malformed role template; fatal at startup.
	ErrInvalidTemplate = errors.New("rbac: invalid role template")
)
