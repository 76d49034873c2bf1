package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/catalog/internal/app"
	"github.com/odyssey-erp/catalog/internal/identity"
	"github.com/odyssey-erp/catalog/internal/jobmetrics"
	"github.com/odyssey-erp/catalog/internal/observability"
	"github.com/odyssey-erp/catalog/internal/platform/httpx"
	"github.com/odyssey-erp/catalog/internal/shared"
	"github.com/odyssey-erp/catalog/jobs"
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

	logger := app.NewLogger(cfg).With(slog.String("process", "worker"))
	slog.SetDefault(logger)

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	redisClient, redisProbe, err := app.OpenRedis(ctx, cfg)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	verifier, err := identity.NewJWTVerifier(cfg.Verifier())
	if err != nil {
		logger.Error("init token verifier", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	metrics := observability.NewMetrics()
	snapshotJob := jobs.NewSnapshotJob(store.Products, logger, jobmetrics.NewMetrics(metrics.Registerer()))
	snapshotTask, err := jobs.NewSnapshotTask(jobs.SnapshotPayload{RequestedBy: "scheduler"})
	if err != nil {
		logger.Error("build snapshot task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCatalogSnapshot, Handler: snapshotJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SnapshotCron, Task: snapshotTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	dashboard := asynqmon.New(asynqmon.Options{
		RootPath:     app.DashboardRootPath,
		RedisConnOpt: redisOpts,
	})
	defer func() {
		if err := dashboard.Close(); err != nil {
			logger.Warn("dashboard close", slog.Any("error", err))
		}
	}()

	errs := httpx.NewErrorMapper(logger, cfg.IsDevelopment())
	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	router := app.NewWorkerRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Errors:         errs,
		SessionManager: sessionManager,
		Authenticator:  identity.NewAuthenticator(verifier, errs, logger),
		Metrics:        metrics,
		Probes:         []app.Probe{store.Probe, redisProbe},
		AccountHandler: identity.NewAccountHandler(cfg.OIDC(), verifier, sessionManager, logger, cfg.IsDevelopment()),
		JobHandler:     jobs.NewHandler(inspector, errs),
		Dashboard:      dashboard,
	})
	server := &http.Server{
		Addr:         cfg.WorkerAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("starting worker http server", slog.String("addr", cfg.WorkerAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
