package rbac

import (
	"context"
	"errors"
	"testing"
)

func newProvisionerFixture(t *testing.T, tenantTmpls []RoleTemplate) (*fakeRepo, *Provisioner) {
	t.Helper()
	repo := newFakeRepo()
	catalog := NewCatalog(repo, nil)
	if err := catalog.Ensure(context.Background(), Definitions()); err != nil {
		t.Fatalf("ensure catalog: %v", err)
	}
	registry, err := NewTemplateRegistry(systemTemplates(), tenantTmpls)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	assigner := NewAssigner(repo, catalog, nil, nil)
	return repo, NewProvisioner(repo, registry, assigner, nil, nil)
}

func adminTemplate() RoleTemplate {
	return RoleTemplate{
		Name:        "Admin SPPG",
		Description: "Full access within the SPPG",
		Permissions: []string{PermMenuCreate, PermMenuView},
	}
}

func TestProvisionTenantUnknownTenant(t *testing.T) {
	_, provisioner := newProvisionerFixture(t, []RoleTemplate{adminTemplate()})
	_, err := provisioner.ProvisionTenant(context.Background(), 404)
	if !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestProvisionTenantCreatesTemplateRoles(t *testing.T) {
	repo, provisioner := newProvisionerFixture(t, []RoleTemplate{adminTemplate()})
	repo.addTenant(1)

	report, err := provisioner.ProvisionTenant(context.Background(), 1)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if report.RolesCreated != 1 || report.RolesReused != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	tenantID := int64(1)
	role, err := repo.FindRole(context.Background(), &tenantID, "Admin SPPG")
	if err != nil {
		t.Fatalf("find role: %v", err)
	}
	if role.System {
		t.Fatalf("tenant role flagged as system role")
	}
	if repo.linkCount(role.ID) != 2 {
		t.Fatalf("expected 2 grants, got %d", repo.linkCount(role.ID))
	}
}

func TestProvisionTenantIsIdempotent(t *testing.T) {
	repo, provisioner := newProvisionerFixture(t, []RoleTemplate{adminTemplate()})
	repo.addTenant(1)

	if _, err := provisioner.ProvisionTenant(context.Background(), 1); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := provisioner.ProvisionTenant(context.Background(), 1)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.RolesCreated != 0 || report.RolesReused != 1 || report.GrantsCreated != 0 {
		t.Fatalf("second run not a no-op: %+v", report)
	}

	tenantID := int64(1)
	roles, _ := repo.ListRoles(context.Background(), &tenantID)
	if len(roles) != 1 {
		t.Fatalf("expected 1 role after re-run, got %d", len(roles))
	}
}

func TestProvisionTenantPicksUpTemplateGrowth(t *testing.T) {
	grown := adminTemplate()
	repo, provisioner := newProvisionerFixture(t, []RoleTemplate{grown})
	repo.addTenant(1)
	if _, err := provisioner.ProvisionTenant(context.Background(), 1); err != nil {
		t.Fatalf("initial run: %v", err)
	}

	// Template gains menu.delete between deployments.
	grown.Permissions = append(grown.Permissions, PermMenuDelete)
	registry, err := NewTemplateRegistry(nil, []RoleTemplate{grown})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	provisioner.registry = registry

	report, err := provisioner.ProvisionTenant(context.Background(), 1)
	if err != nil {
		t.Fatalf("re-run: %v", err)
	}
	if report.GrantsCreated != 1 {
		t.Fatalf("expected exactly the new grant, got %d", report.GrantsCreated)
	}
	tenantID := int64(1)
	role, _ := repo.FindRole(context.Background(), &tenantID, "Admin SPPG")
	if repo.linkCount(role.ID) != 3 {
		t.Fatalf("expected 3 grants after growth, got %d", repo.linkCount(role.ID))
	}
}

func TestProvisionTenantPreservesManualGrants(t *testing.T) {
	repo, provisioner := newProvisionerFixture(t, []RoleTemplate{adminTemplate()})
	repo.addTenant(1)
	if _, err := provisioner.ProvisionTenant(context.Background(), 1); err != nil {
		t.Fatalf("initial run: %v", err)
	}

	// Tenant admin manually grants an extra permission outside the template.
	tenantID := int64(1)
	role, _ := repo.FindRole(context.Background(), &tenantID, "Admin SPPG")
	extra, _ := repo.ResolvePermissions(context.Background(), []string{PermBillingView})
	if _, err := repo.EnsureRolePermission(context.Background(), role.ID, extra[PermBillingView].ID); err != nil {
		t.Fatalf("manual grant: %v", err)
	}

	if _, err := provisioner.ProvisionTenant(context.Background(), 1); err != nil {
		t.Fatalf("re-run: %v", err)
	}
	held, _ := repo.AnyRoleHasPermission(context.Background(), []int64{role.ID}, PermBillingView)
	if !held {
		t.Fatalf("manual grant removed by re-provisioning")
	}
}

func TestProvisionTenantIsolation(t *testing.T) {
	repo, provisioner := newProvisionerFixture(t, []RoleTemplate{adminTemplate()})
	repo.addTenant(1)
	repo.addTenant(2)

	if _, err := provisioner.ProvisionTenant(context.Background(), 1); err != nil {
		t.Fatalf("provision tenant 1: %v", err)
	}
	if _, err := provisioner.ProvisionTenant(context.Background(), 2); err != nil {
		t.Fatalf("provision tenant 2: %v", err)
	}

	t1, t2 := int64(1), int64(2)
	role1, _ := repo.FindRole(context.Background(), &t1, "Admin SPPG")
	role2, _ := repo.FindRole(context.Background(), &t2, "Admin SPPG")
	if role1.ID == role2.ID {
		t.Fatalf("same-named roles across tenants share a row")
	}

	// A role of tenant 2 must never satisfy a check against tenant 1's roles.
	held, _ := repo.AnyRoleHasPermission(context.Background(), []int64{role1.ID}, PermMenuCreate)
	if !held {
		t.Fatalf("tenant 1 role missing its own grant")
	}
	extra, _ := repo.ResolvePermissions(context.Background(), []string{PermBillingEdit})
	if _, err := repo.EnsureRolePermission(context.Background(), role2.ID, extra[PermBillingEdit].ID); err != nil {
		t.Fatalf("grant tenant 2: %v", err)
	}
	held, _ = repo.AnyRoleHasPermission(context.Background(), []int64{role1.ID}, PermBillingEdit)
	if held {
		t.Fatalf("tenant 1 role holds a permission granted only to tenant 2")
	}
}

func TestProvisionTenantNeverTouchesOtherScopes(t *testing.T) {
	repo, provisioner := newProvisionerFixture(t, []RoleTemplate{adminTemplate()})
	repo.addTenant(7)
	repo.addTenant(8)

	if _, err := provisioner.ProvisionTenant(context.Background(), 7); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if repo.touchedScopes["tenant:8"] {
		t.Fatalf("provisioning tenant 7 touched tenant 8 rows")
	}
	if repo.touchedScopes["system"] {
		t.Fatalf("provisioning a tenant touched system-scoped rows")
	}
}

func TestProvisionTenantPartialFailureIsResumable(t *testing.T) {
	second := RoleTemplate{Name: "Ahli Gizi", Permissions: []string{PermMenuView}}
	repo, provisioner := newProvisionerFixture(t, []RoleTemplate{adminTemplate(), second})
	repo.addTenant(1)
	boom := errors.New("storage down")
	repo.ensureRoleErr["Ahli Gizi"] = boom

	report, err := provisioner.ProvisionTenant(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if report.RolesCreated != 1 {
		t.Fatalf("expected first template provisioned before failure, got %+v", report)
	}

	// Retry after recovery completes the remainder without duplicating.
	delete(repo.ensureRoleErr, "Ahli Gizi")
	report, err = provisioner.ProvisionTenant(context.Background(), 1)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if report.RolesCreated != 1 || report.RolesReused != 1 {
		t.Fatalf("retry did not resume cleanly: %+v", report)
	}
	tenantID := int64(1)
	roles, _ := repo.ListRoles(context.Background(), &tenantID)
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles after retry, got %d", len(roles))
	}
}

func TestProvisionBeforeBootstrapLeavesRolesWithoutGrants(t *testing.T) {
	// Fixture without catalog.Ensure: the state of a fresh database when a
	// process skips BootstrapPlatform before consuming provisioning work.
	repo := newFakeRepo()
	catalog := NewCatalog(repo, nil)
	registry, err := NewTemplateRegistry(systemTemplates(), []RoleTemplate{adminTemplate()})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	assigner := NewAssigner(repo, catalog, nil, nil)
	provisioner := NewProvisioner(repo, registry, assigner, nil, nil)
	repo.addTenant(1)

	report, err := provisioner.ProvisionTenant(context.Background(), 1)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if report.GrantsCreated != 0 {
		t.Fatalf("empty catalog produced %d grants", report.GrantsCreated)
	}
	if len(report.Unresolved) != len(adminTemplate().Permissions) {
		t.Fatalf("expected every template permission unresolved, got %v", report.Unresolved)
	}
	tenantID := int64(1)
	role, err := repo.FindRole(context.Background(), &tenantID, "Admin SPPG")
	if err != nil {
		t.Fatalf("find role: %v", err)
	}
	if repo.linkCount(role.ID) != 0 {
		t.Fatalf("role should hold no grants before bootstrap, got %d", repo.linkCount(role.ID))
	}

	// Bootstrap fills the catalog; re-provisioning completes the grants.
	// This is why both binaries must bootstrap before taking work.
	if err := provisioner.BootstrapPlatform(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	report, err = provisioner.ProvisionTenant(context.Background(), 1)
	if err != nil {
		t.Fatalf("re-provision: %v", err)
	}
	if len(report.Unresolved) != 0 {
		t.Fatalf("unresolved after bootstrap: %v", report.Unresolved)
	}
	if repo.linkCount(role.ID) != len(adminTemplate().Permissions) {
		t.Fatalf("expected full grant set after bootstrap, got %d", repo.linkCount(role.ID))
	}
}

func TestBootstrapPlatformCreatesSystemRoles(t *testing.T) {
	repo, provisioner := newProvisionerFixture(t, []RoleTemplate{adminTemplate()})

	if err := provisioner.BootstrapPlatform(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	role, err := repo.FindRole(context.Background(), nil, "Superadmin")
	if err != nil {
		t.Fatalf("find superadmin: %v", err)
	}
	if !role.System {
		t.Fatalf("superadmin not flagged as system role")
	}
	if repo.linkCount(role.ID) != len(Definitions()) {
		t.Fatalf("superadmin should hold the full catalog: %d vs %d", repo.linkCount(role.ID), len(Definitions()))
	}

	// Re-running bootstrap is a no-op.
	if err := provisioner.BootstrapPlatform(context.Background()); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if repo.linkCount(role.ID) != len(Definitions()) {
		t.Fatalf("bootstrap re-run duplicated grants")
	}
}
