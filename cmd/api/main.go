package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	appconfig "alerthub/internal/pkg/config"

	"alerthub/internal/domain/entity"
	hhttp "alerthub/internal/handler/http"
	halert "alerthub/internal/handler/http/alert"
	"alerthub/internal/handler/http/requestid"
	hsched "alerthub/internal/handler/http/schedulerctl"
	pgRepo "alerthub/internal/infra/adapter/persistence/postgres"
	"alerthub/internal/infra/db"
	"alerthub/internal/observability/logging"
	"alerthub/internal/observability/tracing"
	"alerthub/internal/resilience/circuitbreaker"
	"alerthub/internal/scheduler"
	"alerthub/internal/usecase/alertops"
	"alerthub/internal/usecase/dispatch"
	"alerthub/internal/usecase/reminder"
)

func main() {
	logger := initLogger()
	validateJWTSecret(logger)

	cfg := appconfig.Load()

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	sched, svc := setupServices(logger, cfg, database)
	handler := setupRoutes(logger, cfg, database, sched, svc)

	runServer(logger, cfg, handler, sched)
}

// initLogger initializes the process-wide structured logger.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// validateJWTSecret enforces minimum secret strength at startup so the
// control surface cannot run with a guessable token key.
func validateJWTSecret(logger *slog.Logger) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}
	if len(secret) < 32 {
		logger.Error("JWT_SECRET must be at least 32 characters (256 bits)")
		os.Exit(1)
	}
	weakSecrets := []string{"secret", "password", "test", "admin", "default"}
	for _, weak := range weakSecrets {
		if secret == weak || secret == weak+"123" {
			logger.Error("JWT_SECRET must not be a common weak value", slog.String("weak_value", weak))
			os.Exit(1)
		}
	}
}

// setupServices builds the dispatcher, the control-operations service, and
// the scheduler with its default tasks and overrides applied.
func setupServices(logger *slog.Logger, cfg *appconfig.App, database *sql.DB) (*scheduler.Scheduler, *alertops.Service) {
	breaker := circuitbreaker.NewDBCircuitBreaker(database)

	registry := dispatch.NewRegistry()
	registry.Register(entity.KindEmail, dispatch.NewEmailChannel(dispatch.EmailConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}))
	registry.Register(entity.KindSMS, dispatch.NewSMSChannel(dispatch.SMSConfig{
		APIURL:  cfg.SMS.APIURL,
		APIKey:  cfg.SMS.APIKey,
		Timeout: cfg.SMS.Timeout,
	}))
	registry.Register(entity.KindInApp, dispatch.NewInAppChannel(pgRepo.NewInboxStore(breaker), logger))

	dispatcher := dispatch.NewDispatcher(registry, logger)

	alerts := pgRepo.NewAlertRepo(breaker)
	statuses := pgRepo.NewAlertStatusRepo(breaker)
	deliveries := pgRepo.NewDeliveryRepo(breaker)
	users := pgRepo.NewUserRepo(breaker)

	svc := &alertops.Service{
		Alerts:     alerts,
		Statuses:   statuses,
		Deliveries: deliveries,
		Users:      users,
		Dispatcher: dispatcher,
		Logger:     logger,
	}

	jobs := &reminder.Service{
		Alerts:     alerts,
		Statuses:   statuses,
		Deliveries: deliveries,
		Users:      users,
		Dispatcher: dispatcher,
		Logger:     logger,
	}

	sched := scheduler.New(logger)
	if err := scheduler.RegisterDefaultTasks(sched, jobs); err != nil {
		logger.Error("failed to register tasks", slog.Any("error", err))
		os.Exit(1)
	}

	overrides, err := appconfig.LoadTaskOverrides(cfg.TaskOverridesPath)
	if err != nil {
		logger.Error("failed to load task overrides", slog.Any("error", err))
		os.Exit(1)
	}
	for name, override := range overrides {
		if override.Interval != nil {
			if err := sched.SetTaskInterval(name, time.Duration(*override.Interval)); err != nil {
				logger.Warn("task override skipped", slog.String("task", name), slog.Any("error", err))
				continue
			}
		}
		if override.Enabled != nil {
			if err := sched.SetTaskEnabled(name, *override.Enabled); err != nil {
				logger.Warn("task override skipped", slog.String("task", name), slog.Any("error", err))
			}
		}
	}

	return sched, svc
}

// setupRoutes registers the control endpoints and wraps the mux with the
// middleware chain.
func setupRoutes(logger *slog.Logger, cfg *appconfig.App, database *sql.DB, sched *scheduler.Scheduler, svc *alertops.Service) http.Handler {
	mux := http.NewServeMux()

	halert.Register(mux, svc)
	hsched.Register(mux, sched)

	mux.Handle("/health", &hhttp.HealthHandler{DB: database, Scheduler: sched, Version: cfg.Version})
	mux.Handle("/ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("/live", &hhttp.LiveHandler{})
	mux.Handle("/metrics", hhttp.MetricsHandler())

	return hhttp.Chain(mux,
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Metrics,
		hhttp.Logging(logger),
		hhttp.Recover(logger),
		hhttp.Timeout(cfg.RequestTimeout),
	)
}

// runServer starts the control server, optionally starts the scheduler, and
// handles graceful shutdown on SIGINT/SIGTERM.
func runServer(logger *slog.Logger, cfg *appconfig.App, handler http.Handler, sched *scheduler.Scheduler) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.SchedulerEnabled {
		sched.Start()
		logger.Info("scheduler started", slog.Int("tasks", sched.Status().TaskCount))
	} else {
		logger.Info("scheduler not started, use the control endpoint to start it")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("server starting",
			slog.String("addr", cfg.HTTPAddr),
			slog.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", slog.Any("error", err))
		}
		sched.Stop()
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
