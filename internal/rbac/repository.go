package rbac

import "context"

// Repository is the persistence boundary for the RBAC core. Implementations
// must back the three Ensure primitives with storage-level uniqueness
// constraints; the in-memory check-then-create sequence is an optimization,
// never the source of truth.
type Repository interface {
	// EnsurePermission upserts a permission by name, refreshing only the
	// description of an existing row.
	EnsurePermission(ctx context.Context, def PermissionDefinition) (Permission, error)
	// ResolvePermissions maps the given names to stored permissions. Names
	// absent from the catalog are simply absent from the result.
	ResolvePermissions(ctx context.Context, names []string) (map[string]Permission, error)
	// ListPermissions returns the full catalog ordered by name.
	ListPermissions(ctx context.Context) ([]Permission, error)

	// EnsureRole returns the role with the given (tenant scope, name) pair,
	// creating it when missing, and reports whether a new row was created.
	// A concurrent create losing the race must resolve to the surviving row,
	// not an error.
	EnsureRole(ctx context.Context, tenantID *int64, name, description string, system bool) (Role, bool, error)
	// FindRole fetches a role by scope and name, ErrNotFound when absent.
	FindRole(ctx context.Context, tenantID *int64, name string) (Role, error)
	// GetRole fetches a role by ID, ErrNotFound when absent.
	GetRole(ctx context.Context, id int64) (Role, error)
	// ListRoles returns roles for the given scope ordered by name.
	ListRoles(ctx context.Context, tenantID *int64) ([]Role, error)

	// EnsureRolePermission links a role to a permission, reporting whether a
	// new link was created.
	EnsureRolePermission(ctx context.Context, roleID, permissionID int64) (bool, error)
	// ListRolePermissions returns the permissions held by a role.
	ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error)
	// AnyRoleHasPermission reports whether at least one of the roles holds a
	// permission with exactly the given name.
	AnyRoleHasPermission(ctx context.Context, roleIDs []int64, name string) (bool, error)

	// TenantExists reports whether the tenant row exists.
	TenantExists(ctx context.Context, tenantID int64) (bool, error)
}
