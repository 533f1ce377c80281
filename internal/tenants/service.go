package tenants

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gizihub/gizihub/internal/rbac"
	"github.com/gizihub/gizihub/internal/shared"
)

// RoleProvisioner materializes a tenant's default role set.
type RoleProvisioner interface {
	ProvisionTenant(ctx context.Context, tenantID int64) (rbac.ProvisionReport, error)
}

// Scheduler defers provisioning and onboarding notifications to the
// background worker.
type Scheduler interface {
	ScheduleProvision(ctx context.Context, tenantID int64) error
	ScheduleWelcomeEmail(ctx context.Context, to, tenantName string) error
}

// Auditor records onboarding events.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates SPPG onboarding. The onboarding event itself only
// creates the tenant row; role provisioning runs through the scheduler so a
// slow or failing provision never blocks the signup path, and the task is
// safe to retry.
type Service struct {
	repo        Repository
	provisioner RoleProvisioner
	scheduler   Scheduler
	audit       Auditor
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewService constructs a Service. scheduler may be nil, in which case
// onboarding provisions synchronously.
func NewService(repo Repository, provisioner RoleProvisioner, scheduler Scheduler, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		provisioner: provisioner,
		scheduler:   scheduler,
		audit:       audit,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Onboard registers a new SPPG and kicks off role provisioning.
func (s *Service) Onboard(ctx context.Context, req OnboardRequest) (Tenant, error) {
	if err := s.validate.Struct(req); err != nil {
		return Tenant{}, fmt.Errorf("tenants: onboard: %w", err)
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = Slugify(req.Name)
	} else {
		code = Slugify(code)
	}
	if code == "" {
		return Tenant{}, fmt.Errorf("tenants: onboard: name %q yields empty code", req.Name)
	}

	tenant, err := s.repo.Create(ctx, Tenant{
		Code:         code,
		Name:         strings.TrimSpace(req.Name),
		Region:       strings.TrimSpace(req.Region),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		Status:       StatusPending,
	})
	if err != nil {
		return Tenant{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:        "tenant.onboard",
			Entity:        "tenants",
			EntityID:      strconv.FormatInt(tenant.ID, 10),
			CorrelationID: uuid.New(),
			Meta:          map[string]any{"code": tenant.Code, "region": tenant.Region},
		})
	}

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleProvision(ctx, tenant.ID); err != nil {
			// The tenant row exists; provisioning can be re-triggered.
			s.logger.Error("schedule provisioning", slog.Any("error", err), slog.Int64("tenant_id", tenant.ID))
			return tenant, fmt.Errorf("tenants: schedule provisioning: %w", err)
		}
		if tenant.ContactEmail != "" {
			// A lost welcome email must not fail the signup.
			if err := s.scheduler.ScheduleWelcomeEmail(ctx, tenant.ContactEmail, tenant.Name); err != nil {
				s.logger.Warn("schedule welcome email", slog.Any("error", err), slog.Int64("tenant_id", tenant.ID))
			}
		}
		return tenant, nil
	}

	if _, err := s.Provision(ctx, tenant.ID); err != nil {
		return tenant, err
	}
	return tenant, nil
}

// Provision runs role provisioning for the tenant and activates it on
// success. Idempotent; used by the onboarding path, the background task and
// the manual re-provision endpoint.
func (s *Service) Provision(ctx context.Context, tenantID int64) (rbac.ProvisionReport, error) {
	report, err := s.provisioner.ProvisionTenant(ctx, tenantID)
	if err != nil {
		return report, err
	}

	if err := s.repo.UpdateStatus(ctx, tenantID, StatusActive); err != nil {
		return report, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:        "tenant.provision",
			Entity:        "tenants",
			EntityID:      strconv.FormatInt(tenantID, 10),
			CorrelationID: uuid.New(),
			Meta: map[string]any{
				"roles_created":  report.RolesCreated,
				"roles_reused":   report.RolesReused,
				"grants_created": report.GrantsCreated,
				"unresolved":     report.Unresolved,
			},
		})
	}
	return report, nil
}

// Get fetches a tenant by ID.
func (s *Service) Get(ctx context.Context, id int64) (Tenant, error) {
	if id <= 0 {
		return Tenant{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns all tenants ordered by name.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.repo.List(ctx)
}
