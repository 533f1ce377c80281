package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gizihub/gizihub/internal/app"
	"github.com/gizihub/gizihub/internal/auth"
	"github.com/gizihub/gizihub/internal/observability"
	"github.com/gizihub/gizihub/internal/platform/cache"
	"github.com/gizihub/gizihub/internal/platform/db"
	"github.com/gizihub/gizihub/internal/rbac"
	"github.com/gizihub/gizihub/internal/shared"
	"github.com/gizihub/gizihub/internal/tenants"
	"github.com/gizihub/gizihub/internal/users"
	"github.com/gizihub/gizihub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
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

	sessionManager := shared.NewSessionManager(redisClient, "gizihub_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	metrics := observability.NewMetrics()

	rbacRepo := rbac.NewRepository(pool)
	catalog := rbac.NewCatalog(rbacRepo, logger)
	registry, err := rbac.DefaultTemplateRegistry()
	if err != nil {
		logger.Error("load role templates", slog.Any("error", err))
		os.Exit(1)
	}
	assigner := rbac.NewAssigner(rbacRepo, catalog, logger, metrics)
	provisioner := rbac.NewProvisioner(rbacRepo, registry, assigner, logger, metrics)

	// Bootstrap runs on every start; all ensure operations are idempotent.
	bootCtx, cancelBoot := context.WithTimeout(ctx, 30*time.Second)
	if err := provisioner.BootstrapPlatform(bootCtx); err != nil {
		cancelBoot()
		logger.Error("bootstrap platform roles", slog.Any("error", err))
		os.Exit(1)
	}
	cancelBoot()

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditLogger, logger)

	var checker rbac.Checker = rbac.NewGate(rbacRepo)
	if cfg.AuthzCacheTTL > 0 {
		checker = rbac.NewCachedGate(checker, redisClient, cfg.AuthzCacheTTL)
	}
	rbacMiddleware := rbac.Middleware{
		Checker:  checker,
		Roles:    usersService,
		Logger:   logger,
		Observer: metrics,
	}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	scheduler := jobs.NewScheduler(jobClient)

	tenantsRepo := tenants.NewRepository(pool)
	tenantsService := tenants.NewService(tenantsRepo, provisioner, scheduler, auditLogger, logger)
	tenantsHandler := tenants.NewHandler(logger, tenantsService, idempotencyStore, rbacMiddleware)

	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(usersService, authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	rbacHandler := rbac.NewAdminHandler(logger, rbacRepo, registry, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		Pool:           pool,
		AuthHandler:    authHandler,
		TenantsHandler: tenantsHandler,
		UsersHandler:   usersHandler,
		RBACHandler:    rbacHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
