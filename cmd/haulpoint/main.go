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
	"golang.org/x/sync/errgroup"

	"github.com/haulpoint/haulpoint/internal/app"
	"github.com/haulpoint/haulpoint/internal/approval"
	"github.com/haulpoint/haulpoint/internal/audit"
	"github.com/haulpoint/haulpoint/internal/authz"
	"github.com/haulpoint/haulpoint/internal/identity"
	"github.com/haulpoint/haulpoint/internal/observability"
	"github.com/haulpoint/haulpoint/internal/platform/cache"
	"github.com/haulpoint/haulpoint/internal/platform/db"
	"github.com/haulpoint/haulpoint/internal/roles"
	"github.com/haulpoint/haulpoint/jobs"
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

	sessionStore := identity.NewStore(redisClient, cfg.SessionTTL)
	identityMW := identity.Middleware{Store: sessionStore, Logger: logger}

	metrics := observability.NewMetrics()

	resolver := authz.NewResolver(redisClient, cfg.PermissionCacheTTL, logger)
	authzMW := authz.Middleware{Resolver: resolver, Logger: logger, Observe: metrics.ObserveAuthzDecision}

	// Audit facts go through the worker queue; the worker owns the database
	// write. The emitter keeps recording non-blocking on the request path.
	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()
	emitter := audit.NewEmitter(jobs.NewQueueSink(queueClient), logger, cfg.AuditQueueSize)
	emitter.WithDropHook(metrics.ObserveAuditDrop)
	defer emitter.Close()

	engine := approval.NewEngine(approval.NewPGRepository(pool), emitter, logger, cfg.ApprovalQuorum)
	engine.WithObserver(metrics.ObserveTransition)
	approvalHandler := approval.NewHandler(logger, engine)

	rolesService := roles.NewService(roles.NewPGRepository(pool), logger)
	rolesHandler := roles.NewHandler(logger, rolesService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Identity:        identityMW,
		Authz:           authzMW,
		ApprovalHandler: approvalHandler,
		RolesHandler:    rolesHandler,
		JobsHandler:     jobsHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
