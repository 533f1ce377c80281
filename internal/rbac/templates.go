package rbac

import (
	"fmt"
	"strings"
)

// TemplateRegistry holds the static role archetypes: system templates are
// materialized once at platform bootstrap, tenant templates once per SPPG at
// provisioning time. Declaration order is a contract; provisioning walks the
// lists front to back so repeated runs create roles in the same order.
type TemplateRegistry struct {
	system []RoleTemplate
	tenant []RoleTemplate
}

// NewTemplateRegistry validates and wraps the given template sets.
func NewTemplateRegistry(system, tenant []RoleTemplate) (*TemplateRegistry, error) {
	for _, t := range append(append([]RoleTemplate{}, system...), tenant...) {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("%w: template with empty name", ErrInvalidTemplate)
		}
		if len(t.Permissions) == 0 {
			return nil, fmt.Errorf("%w: template %s grants no permissions", ErrInvalidTemplate, t.Name)
		}
	}
	return &TemplateRegistry{system: system, tenant: tenant}, nil
}

// DefaultTemplateRegistry returns the built-in role set.
func DefaultTemplateRegistry() (*TemplateRegistry, error) {
	return NewTemplateRegistry(systemTemplates(), tenantTemplates())
}

// SystemTemplates returns the platform-wide role templates in declaration order.
func (r *TemplateRegistry) SystemTemplates() []RoleTemplate {
	return copyTemplates(r.system)
}

// TenantTemplates returns the per-tenant role templates in declaration order.
func (r *TemplateRegistry) TenantTemplates() []RoleTemplate {
	return copyTemplates(r.tenant)
}

func copyTemplates(src []RoleTemplate) []RoleTemplate {
	out := make([]RoleTemplate, len(src))
	for i, t := range src {
		perms := make([]string, len(t.Permissions))
		copy(perms, t.Permissions)
		out[i] = RoleTemplate{Name: t.Name, Description: t.Description, Permissions: perms}
	}
	return out
}

func systemTemplates() []RoleTemplate {
	all := make([]string, 0, len(Definitions()))
	for _, def := range Definitions() {
		all = append(all, def.Name())
	}
	return []RoleTemplate{
		{
			Name:        "Superadmin",
			Description: "Full platform access across all tenants",
			Permissions: all,
		},
		{
			Name:        "Platform Support",
			Description: "Read-only platform operations",
			Permissions: []string{
				PermUsersView, PermRolesView, PermPermissionsView,
				PermSppgView, PermReportView, PermDashboardView,
			},
		},
	}
}

func tenantTemplates() []RoleTemplate {
	return []RoleTemplate{
		{
			Name:        "Admin SPPG",
			Description: "Full access within the SPPG",
			Permissions: []string{
				PermUsersView, PermUsersEdit, PermRolesView,
				PermMenuView, PermMenuCreate, PermMenuEdit, PermMenuDelete,
				PermProcurementView, PermProcurementCreate, PermProcurementApprove,
				PermInventoryView, PermInventoryEdit,
				PermDistributionView, PermDistributionEdit, PermDistributionTrack,
				PermStaffView, PermStaffCreate, PermStaffEdit, PermStaffDelete,
				PermBillingView, PermBillingEdit,
				PermReportView, PermReportExport, PermDashboardView,
			},
		},
		{
			Name:        "Kepala SPPG",
			Description: "Unit head: approvals and reporting",
			Permissions: []string{
				PermMenuView, PermProcurementView, PermProcurementApprove,
				PermInventoryView, PermDistributionView, PermStaffView,
				PermBillingView, PermReportView, PermReportExport, PermDashboardView,
			},
		},
		{
			Name:        "Ahli Gizi",
			Description: "Nutritionist: menu planning",
			Permissions: []string{
				PermMenuView, PermMenuCreate, PermMenuEdit,
				PermInventoryView, PermReportView, PermDashboardView,
			},
		},
		{
			Name:        "Akuntan",
			Description: "Accountant: billing and reports",
			Permissions: []string{
				PermBillingView, PermBillingEdit, PermProcurementView,
				PermReportView, PermReportExport, PermDashboardView,
			},
		},
		{
			Name:        "Staf Gudang",
			Description: "Warehouse staff: inventory and goods receipt",
			Permissions: []string{
				PermInventoryView, PermInventoryEdit,
				PermProcurementView, PermProcurementCreate,
			},
		},
		{
			Name:        "Staf Distribusi",
			Description: "Distribution staff: delivery tracking",
			Permissions: []string{
				PermDistributionView, PermDistributionEdit, PermDistributionTrack,
				PermMenuView,
			},
		},
	}
}
