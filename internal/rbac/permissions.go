package rbac

// Core platform permissions.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"

	PermSppgView    = "sppg.view"
	PermSppgEdit    = "sppg.edit"
	PermSppgApprove = "sppg.approve"
)

// Tenant-operational permissions.
const (
	PermMenuView   = "menu.view"
	PermMenuCreate = "menu.create"
	PermMenuEdit   = "menu.edit"
	PermMenuDelete = "menu.delete"

	PermProcurementView    = "procurement.view"
	PermProcurementCreate  = "procurement.create"
	PermProcurementApprove = "procurement.approve"

	PermInventoryView = "inventory.view"
	PermInventoryEdit = "inventory.edit"

	PermDistributionView  = "distribution.view"
	PermDistributionEdit  = "distribution.edit"
	PermDistributionTrack = "distribution.track"

	PermStaffView   = "staff.view"
	PermStaffCreate = "staff.create"
	PermStaffEdit   = "staff.edit"
	PermStaffDelete = "staff.delete"

	PermBillingView = "billing.view"
	PermBillingEdit = "billing.edit"

	PermReportView   = "report.view"
	PermReportExport = "report.export"

	PermDashboardView = "dashboard.view"
)

// Definitions returns every permission the platform recognizes, in catalog
// order. The list is append-only across deployments; renaming an entry is a
// breaking change for every module persisting the name.
func Definitions() []PermissionDefinition {
	return []PermissionDefinition{
		// Platform administration
		{Module: "users", Action: "view", Description: "View users"},
		{Module: "users", Action: "edit", Description: "Manage users"},
		{Module: "roles", Action: "view", Description: "View roles"},
		{Module: "roles", Action: "edit", Description: "Manage roles"},
		{Module: "permissions", Action: "view", Description: "View permissions"},
		{Module: "sppg", Action: "view", Description: "View SPPG units"},
		{Module: "sppg", Action: "edit", Description: "Manage SPPG units"},
		{Module: "sppg", Action: "approve", Description: "Approve SPPG onboarding"},
		// Menu planning
		{Module: "menu", Action: "view", Description: "View menu plans"},
		{Module: "menu", Action: "create", Description: "Create menu plans"},
		{Module: "menu", Action: "edit", Description: "Edit menu plans"},
		{Module: "menu", Action: "delete", Description: "Delete menu plans"},
		// Procurement
		{Module: "procurement", Action: "view", Description: "View procurement documents"},
		{Module: "procurement", Action: "create", Description: "Create procurement documents"},
		{Module: "procurement", Action: "approve", Description: "Approve procurement documents"},
		// Inventory
		{Module: "inventory", Action: "view", Description: "View inventory"},
		{Module: "inventory", Action: "edit", Description: "Post inventory transactions"},
		// Distribution
		{Module: "distribution", Action: "view", Description: "View distribution schedules"},
		{Module: "distribution", Action: "edit", Description: "Manage distribution schedules"},
		{Module: "distribution", Action: "track", Description: "Track deliveries"},
		// Staffing
		{Module: "staff", Action: "view", Description: "View staff records"},
		{Module: "staff", Action: "create", Description: "Create staff records"},
		{Module: "staff", Action: "edit", Description: "Edit staff records"},
		{Module: "staff", Action: "delete", Description: "Delete staff records"},
		// Billing
		{Module: "billing", Action: "view", Description: "View invoices"},
		{Module: "billing", Action: "edit", Description: "Manage invoices"},
		// Reporting
		{Module: "report", Action: "view", Description: "Access reports"},
		{Module: "report", Action: "export", Description: "Export reports"},
		{Module: "dashboard", Action: "view", Description: "View dashboards"},
	}
}
