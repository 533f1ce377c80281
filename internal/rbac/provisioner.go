package rbac

import (
	"context"
	"fmt"
	"log/slog"
)

// ProvisionReport summarizes a provisioning run.
type ProvisionReport struct {
	TenantID      int64
	RolesCreated  int
	RolesReused   int
	GrantsCreated int
	Unresolved    []string
}

// Provisioner materializes role sets from templates: the platform's system
// roles at bootstrap and each tenant's default roles at onboarding.
//
// ProvisionTenant is re-entrant. A partial failure leaves previously
// provisioned roles intact and the whole call can be repeated until it
// converges; nothing is ever deleted or reset on a re-run.
type Provisioner struct {
	repo     Repository
	registry *TemplateRegistry
	assigner *Assigner
	logger   *slog.Logger
	observer Observer
}

// NewProvisioner constructs a Provisioner.
func NewProvisioner(repo Repository, registry *TemplateRegistry, assigner *Assigner, logger *slog.Logger, observer Observer) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		repo:     repo,
		registry: registry,
		assigner: assigner,
		logger:   logger,
		observer: observerOrNoop(observer),
	}
}

// BootstrapPlatform ensures the permission catalog and the system roles.
// Called once at startup; any failure here blocks the platform.
func (p *Provisioner) BootstrapPlatform(ctx context.Context) error {
	if err := p.assigner.catalog.Ensure(ctx, Definitions()); err != nil {
		return fmt.Errorf("rbac: bootstrap catalog: %w", err)
	}
	for _, tmpl := range p.registry.SystemTemplates() {
		role, created, err := p.repo.EnsureRole(ctx, nil, tmpl.Name, tmpl.Description, true)
		if err != nil {
			return fmt.Errorf("rbac: bootstrap role %s: %w", tmpl.Name, err)
		}
		if created {
			p.observer.RoleProvisioned(true)
		}
		if _, err := p.assigner.Grant(ctx, role, tmpl.Permissions); err != nil {
			return fmt.Errorf("rbac: bootstrap grants for %s: %w", tmpl.Name, err)
		}
	}
	p.logger.Info("platform rbac bootstrapped", slog.Int("system_roles", len(p.registry.SystemTemplates())))
	return nil
}

// ProvisionTenant instantiates the tenant's default role set from the tenant
// templates. Existing roles are reused and their extra grants preserved; the
// call only ever touches roles scoped to tenantID.
func (p *Provisioner) ProvisionTenant(ctx context.Context, tenantID int64) (ProvisionReport, error) {
	report := ProvisionReport{TenantID: tenantID}

	exists, err := p.repo.TenantExists(ctx, tenantID)
	if err != nil {
		return report, err
	}
	if !exists {
		return report, fmt.Errorf("%w: id %d", ErrTenantNotFound, tenantID)
	}

	for _, tmpl := range p.registry.TenantTemplates() {
		role, created, err := p.repo.EnsureRole(ctx, &tenantID, tmpl.Name, tmpl.Description, false)
		if err != nil {
			return report, fmt.Errorf("rbac: provision role %s for tenant %d: %w", tmpl.Name, tenantID, err)
		}
		if created {
			report.RolesCreated++
			p.observer.RoleProvisioned(false)
		} else {
			report.RolesReused++
		}

		granted, err := p.assigner.Grant(ctx, role, tmpl.Permissions)
		report.GrantsCreated += len(granted.Granted)
		report.Unresolved = append(report.Unresolved, granted.Unresolved...)
		if err != nil {
			return report, fmt.Errorf("rbac: provision grants for %s, tenant %d: %w", tmpl.Name, tenantID, err)
		}
	}

	p.logger.Info("tenant roles provisioned",
		slog.Int64("tenant_id", tenantID),
		slog.Int("roles_created", report.RolesCreated),
		slog.Int("roles_reused", report.RolesReused),
		slog.Int("grants_created", report.GrantsCreated),
		slog.Int("unresolved", len(report.Unresolved)))
	return report, nil
}
