package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/gizihub/gizihub/internal/rbac"
)

// TenantProvisioner runs role provisioning for one tenant. It is implemented
// by the tenants service.
type TenantProvisioner interface {
	Provision(ctx context.Context, tenantID int64) (rbac.ProvisionReport, error)
}

// NewTenantProvisionHandler returns the asynq handler for tenant:provision
// tasks. Provisioning is idempotent, so retries after partial failures are
// safe.
func NewTenantProvisionHandler(provisioner TenantProvisioner, logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload TenantProvisionPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("jobs: decode tenant provision payload: %v: %w", err, asynq.SkipRetry)
		}
		report, err := provisioner.Provision(ctx, payload.TenantID)
		if err != nil {
			if errors.Is(err, rbac.ErrTenantNotFound) {
				logger.Warn("tenant provision skipped, tenant missing",
					slog.Int64("tenant_id", payload.TenantID))
				return asynq.SkipRetry
			}
			logger.Error("tenant provision failed",
				slog.Int64("tenant_id", payload.TenantID),
				slog.Any("error", err))
			return err
		}
		logger.Info("tenant provisioned",
			slog.Int64("tenant_id", report.TenantID),
			slog.Int("roles_created", report.RolesCreated),
			slog.Int("roles_reused", report.RolesReused),
			slog.Int("grants_created", report.GrantsCreated),
			slog.Int("unresolved", len(report.Unresolved)))
		return nil
	}
}

// Scheduler enqueues provisioning work. It satisfies the scheduler contract
// of the tenants service.
type Scheduler struct {
	client *Client
}

// NewScheduler wraps a jobs client.
func NewScheduler(client *Client) *Scheduler {
	return &Scheduler{client: client}
}

// ScheduleProvision enqueues a tenant:provision task.
func (s *Scheduler) ScheduleProvision(ctx context.Context, tenantID int64) error {
	if s == nil || s.client == nil {
		return errors.New("jobs: scheduler not configured")
	}
	task, err := NewTenantProvisionTask(tenantID)
	if err != nil {
		return err
	}
	_, err = s.client.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	if err != nil {
		return fmt.Errorf("jobs: enqueue tenant provision: %w", err)
	}
	return nil
}

// ScheduleWelcomeEmail enqueues the onboarding welcome email.
func (s *Scheduler) ScheduleWelcomeEmail(ctx context.Context, to, tenantName string) error {
	if s == nil || s.client == nil {
		return errors.New("jobs: scheduler not configured")
	}
	_, err := s.client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      to,
		Subject: "Selamat datang di GiziHub",
		Body: fmt.Sprintf("Halo,\n\nSPPG %s telah terdaftar di GiziHub. "+
			"Silakan masuk untuk mengatur akun dan peran tim Anda.\n", tenantName),
	})
	if err != nil {
		return fmt.Errorf("jobs: enqueue welcome email: %w", err)
	}
	return nil
}
