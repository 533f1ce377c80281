package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository constructs a PostgreSQL backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const permissionColumns = `id, name, description, module, action`

func (r *repository) EnsurePermission(ctx context.Context, def PermissionDefinition) (Permission, error) {
	var p Permission
	err := r.db.QueryRow(ctx, `
		INSERT INTO permissions (name, description, module, action)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING `+permissionColumns,
		def.Name(), def.Description, def.Module, def.Action,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Module, &p.Action)
	if err != nil {
		return Permission{}, fmt.Errorf("rbac: ensure permission %s: %w", def.Name(), err)
	}
	return p, nil
}

func (r *repository) ResolvePermissions(ctx context.Context, names []string) (map[string]Permission, error) {
	if len(names) == 0 {
		return map[string]Permission{}, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+permissionColumns+` FROM permissions WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, fmt.Errorf("rbac: resolve permissions: %w", err)
	}
	defer rows.Close()
	resolved := make(map[string]Permission, len(names))
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Module, &p.Action); err != nil {
			return nil, fmt.Errorf("rbac: scan permission: %w", err)
		}
		resolved[p.Name] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: resolve permissions: %w", err)
	}
	return resolved, nil
}

func (r *repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.db.Query(ctx, `SELECT `+permissionColumns+` FROM permissions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Module, &p.Action); err != nil {
			return nil, fmt.Errorf("rbac: scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

const roleColumns = `id, tenant_id, name, description, is_system, created_at, updated_at`

func (r *repository) EnsureRole(ctx context.Context, tenantID *int64, name, description string, system bool) (Role, bool, error) {
	role, err := r.FindRole(ctx, tenantID, name)
	if err == nil {
		return role, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Role{}, false, err
	}

	role, err = r.insertRole(ctx, tenantID, name, description, system)
	if err == nil {
		return role, true, nil
	}
	// Concurrent provisioning of the same tenant can lose the insert race.
	// The unique index is the source of truth: re-read the surviving row.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		role, err = r.FindRole(ctx, tenantID, name)
		return role, false, err
	}
	return Role{}, false, fmt.Errorf("rbac: ensure role %s: %w", name, err)
}

func (r *repository) insertRole(ctx context.Context, tenantID *int64, name, description string, system bool) (Role, error) {
	var role Role
	err := r.db.QueryRow(ctx, `
		INSERT INTO roles (tenant_id, name, description, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING `+roleColumns,
		tenantID, name, description, system,
	).Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.System, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}

func (r *repository) FindRole(ctx context.Context, tenantID *int64, name string) (Role, error) {
	var role Role
	err := r.db.QueryRow(ctx, `
		SELECT `+roleColumns+` FROM roles
		WHERE name = $1 AND tenant_id IS NOT DISTINCT FROM $2`,
		name, tenantID,
	).Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.System, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, fmt.Errorf("rbac: find role %s: %w", name, err)
	}
	return role, nil
}

func (r *repository) GetRole(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.db.QueryRow(ctx, `
		SELECT `+roleColumns+` FROM roles WHERE id = $1`, id,
	).Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.System, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, fmt.Errorf("rbac: get role %d: %w", id, err)
	}
	return role, nil
}

func (r *repository) ListRoles(ctx context.Context, tenantID *int64) ([]Role, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+roleColumns+` FROM roles
		WHERE tenant_id IS NOT DISTINCT FROM $1
		ORDER BY name`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("rbac: list roles: %w", err)
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.System, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("rbac: scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *repository) EnsureRolePermission(ctx context.Context, roleID, permissionID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (role_id, permission_id) DO NOTHING`,
		roleID, permissionID)
	if err != nil {
		return false, fmt.Errorf("rbac: ensure role permission: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.name, p.description, p.module, p.action
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, fmt.Errorf("rbac: list role permissions: %w", err)
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Module, &p.Action); err != nil {
			return nil, fmt.Errorf("rbac: scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *repository) AnyRoleHasPermission(ctx context.Context, roleIDs []int64, name string) (bool, error) {
	if len(roleIDs) == 0 {
		return false, nil
	}
	var held bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM role_permissions rp
			JOIN permissions p ON p.id = rp.permission_id
			WHERE rp.role_id = ANY($1) AND p.name = $2
		)`, roleIDs, name).Scan(&held)
	if err != nil {
		return false, fmt.Errorf("rbac: check permission %s: %w", name, err)
	}
	return held, nil
}

func (r *repository) TenantExists(ctx context.Context, tenantID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`, tenantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("rbac: tenant exists: %w", err)
	}
	return exists, nil
}
