package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gizihub/gizihub/internal/app"
	jobmetrics "github.com/gizihub/gizihub/internal/jobs"
	"github.com/gizihub/gizihub/internal/observability"
	"github.com/gizihub/gizihub/internal/platform/cache"
	"github.com/gizihub/gizihub/internal/platform/db"
	"github.com/gizihub/gizihub/internal/rbac"
	"github.com/gizihub/gizihub/internal/shared"
	"github.com/gizihub/gizihub/internal/tenants"
	"github.com/gizihub/gizihub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
	auditLogger := shared.NewAuditLogger(pool)

	rbacRepo := rbac.NewRepository(pool)
	catalog := rbac.NewCatalog(rbacRepo, logger)
	registry, err := rbac.DefaultTemplateRegistry()
	if err != nil {
		logger.Error("load role templates", slog.Any("error", err))
		os.Exit(1)
	}
	assigner := rbac.NewAssigner(rbacRepo, catalog, logger, metrics)
	provisioner := rbac.NewProvisioner(rbacRepo, registry, assigner, logger, metrics)

	// The worker may start before (or without) the server. Provisioning tasks
	// resolve grants against the permission catalog, so the catalog must be
	// ensured here too; bootstrap is idempotent and cheap on a warm database.
	bootCtx, cancelBoot := context.WithTimeout(ctx, 30*time.Second)
	if err := provisioner.BootstrapPlatform(bootCtx); err != nil {
		cancelBoot()
		logger.Error("bootstrap platform roles", slog.Any("error", err))
		os.Exit(1)
	}
	cancelBoot()

	tenantsRepo := tenants.NewRepository(pool)
	tenantsService := tenants.NewService(tenantsRepo, provisioner, nil, auditLogger, logger)
	mailer := jobs.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTenantProvision, Handler: jobs.Instrument(jobs.TaskTenantProvision, jobMetrics, jobs.NewTenantProvisionHandler(tenantsService, logger))},
			{Type: jobs.TaskTypeSendEmail, Handler: jobs.Instrument(jobs.TaskTypeSendEmail, jobMetrics, jobs.NewSendEmailHandler(mailer, logger))},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
