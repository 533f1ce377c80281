package rbac

import (
	"context"
	"fmt"
	"sync"
)

// fakeRepo is an in-memory Repository enforcing the same uniqueness
// invariants as the SQL schema. It records which tenant scopes were touched
// so tests can assert isolation.
type fakeRepo struct {
	mu sync.Mutex

	nextPermID int64
	nextRoleID int64

	permsByName map[string]Permission
	roles       map[string]Role // key: scopeKey(tenantID) + "/" + name
	links       map[int64]map[int64]bool
	tenants     map[int64]bool

	touchedScopes map[string]bool

	ensureRoleErr map[string]error // by role name
	linkErr       map[int64]error  // by role ID
	resolveErr    error
	checkErr      error

	checkCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		permsByName:   make(map[string]Permission),
		roles:         make(map[string]Role),
		links:         make(map[int64]map[int64]bool),
		tenants:       make(map[int64]bool),
		touchedScopes: make(map[string]bool),
		ensureRoleErr: make(map[string]error),
		linkErr:       make(map[int64]error),
	}
}

func scopeKey(tenantID *int64) string {
	if tenantID == nil {
		return "system"
	}
	return fmt.Sprintf("tenant:%d", *tenantID)
}

func (f *fakeRepo) addTenant(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tenants[id] = true
}

func (f *fakeRepo) EnsurePermission(ctx context.Context, def PermissionDefinition) (Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.permsByName[def.Name()]; ok {
		existing.Description = def.Description
		f.permsByName[def.Name()] = existing
		return existing, nil
	}
	f.nextPermID++
	p := Permission{ID: f.nextPermID, Name: def.Name(), Description: def.Description, Module: def.Module, Action: def.Action}
	f.permsByName[p.Name] = p
	return p, nil
}

func (f *fakeRepo) ResolvePermissions(ctx context.Context, names []string) (map[string]Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	out := make(map[string]Permission)
	for _, name := range names {
		if p, ok := f.permsByName[name]; ok {
			out[name] = p
		}
	}
	return out, nil
}

func (f *fakeRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Permission, 0, len(f.permsByName))
	for _, p := range f.permsByName {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) EnsureRole(ctx context.Context, tenantID *int64, name, description string, system bool) (Role, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureRoleErr[name]; err != nil {
		return Role{}, false, err
	}
	key := scopeKey(tenantID) + "/" + name
	f.touchedScopes[scopeKey(tenantID)] = true
	if role, ok := f.roles[key]; ok {
		return role, false, nil
	}
	f.nextRoleID++
	var scope *int64
	if tenantID != nil {
		v := *tenantID
		scope = &v
	}
	role := Role{ID: f.nextRoleID, TenantID: scope, Name: name, Description: description, System: system}
	f.roles[key] = role
	return role, true, nil
}

func (f *fakeRepo) FindRole(ctx context.Context, tenantID *int64, name string) (Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touchedScopes[scopeKey(tenantID)] = true
	if role, ok := f.roles[scopeKey(tenantID)+"/"+name]; ok {
		return role, nil
	}
	return Role{}, ErrNotFound
}

func (f *fakeRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, role := range f.roles {
		if role.ID == id {
			return role, nil
		}
	}
	return Role{}, ErrNotFound
}

func (f *fakeRepo) ListRoles(ctx context.Context, tenantID *int64) ([]Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Role
	for _, role := range f.roles {
		if role.SameScope(tenantID) {
			out = append(out, role)
		}
	}
	return out, nil
}

func (f *fakeRepo) EnsureRolePermission(ctx context.Context, roleID, permissionID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.linkErr[roleID]; err != nil {
		return false, err
	}
	if f.links[roleID] == nil {
		f.links[roleID] = make(map[int64]bool)
	}
	if f.links[roleID][permissionID] {
		return false, nil
	}
	f.links[roleID][permissionID] = true
	return true, nil
}

func (f *fakeRepo) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Permission
	for _, p := range f.permsByName {
		if f.links[roleID][p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) AnyRoleHasPermission(ctx context.Context, roleIDs []int64, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkCalls++
	if f.checkErr != nil {
		return false, f.checkErr
	}
	perm, ok := f.permsByName[name]
	if !ok {
		return false, nil
	}
	for _, roleID := range roleIDs {
		if f.links[roleID][perm.ID] {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) TenantExists(ctx context.Context, tenantID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tenants[tenantID], nil
}

// linkCount reports how many permission links a role holds.
func (f *fakeRepo) linkCount(roleID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.links[roleID])
}
