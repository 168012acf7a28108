package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	appconfig "alerthub/internal/pkg/config"

	"alerthub/internal/domain/entity"
	"alerthub/internal/handler/http/respond"
	pgRepo "alerthub/internal/infra/adapter/persistence/postgres"
	"alerthub/internal/infra/db"
	"alerthub/internal/observability/logging"
	"alerthub/internal/resilience/circuitbreaker"
	"alerthub/internal/scheduler"
	"alerthub/internal/usecase/dispatch"
	"alerthub/internal/usecase/reminder"
	"alerthub/pkg/config"
)

func waitForMigrations(logger *slog.Logger, db *sql.DB) {
	const probe = "SELECT 1 FROM alerts LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := db.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func main() {
	logger := initLogger()
	cfg := appconfig.Load()

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	breaker := circuitbreaker.NewDBCircuitBreaker(database)
	dispatcher, tracker := setupDispatcher(logger, cfg, breaker)
	jobs := setupReminderService(logger, breaker, dispatcher)

	startMetricsServer(ctx, logger, cfg.MetricsAddr, tracker)

	if cfg.SchedulerEnabled {
		runScheduler(ctx, logger, cfg, jobs)
	} else {
		runExternalCron(ctx, logger, jobs)
	}

	logger.Info("worker stopped")
}

// initLogger initializes the process-wide structured logger.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the connection pool and waits for migrations.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	waitForMigrations(logger, database)
	return database
}

// setupDispatcher builds the channel registry from transport configuration
// and wires a delivery tracker onto the dispatcher.
func setupDispatcher(logger *slog.Logger, cfg *appconfig.App, breaker *circuitbreaker.DBCircuitBreaker) (*dispatch.Dispatcher, *dispatch.Tracker) {
	registry := dispatch.NewRegistry()
	registry.Register(entity.KindEmail, dispatch.NewEmailChannel(dispatch.EmailConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}))

	smsConfig := dispatch.SMSConfig{
		APIURL:  cfg.SMS.APIURL,
		APIKey:  cfg.SMS.APIKey,
		Timeout: cfg.SMS.Timeout,
	}
	if !smsConfig.Configured() {
		logger.Warn("SMS gateway not configured, sms deliveries will fail")
	}
	registry.Register(entity.KindSMS, dispatch.NewSMSChannel(smsConfig))

	registry.Register(entity.KindInApp, dispatch.NewInAppChannel(pgRepo.NewInboxStore(breaker), logger))

	dispatcher := dispatch.NewDispatcher(registry, logger)
	tracker := dispatch.NewTracker()
	dispatcher.AddObserver(tracker)

	logger.Info("dispatcher initialized", slog.Any("channels", registry.Kinds()))
	return dispatcher, tracker
}

// setupReminderService wires the batch jobs over breaker-protected
// repositories so a degraded database fails runs fast.
func setupReminderService(logger *slog.Logger, breaker *circuitbreaker.DBCircuitBreaker, dispatcher *dispatch.Dispatcher) *reminder.Service {
	return &reminder.Service{
		Alerts:     pgRepo.NewAlertRepo(breaker),
		Statuses:   pgRepo.NewAlertStatusRepo(breaker),
		Deliveries: pgRepo.NewDeliveryRepo(breaker),
		Users:      pgRepo.NewUserRepo(breaker),
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

// runScheduler runs the in-process scheduler until the context is canceled.
func runScheduler(ctx context.Context, logger *slog.Logger, cfg *appconfig.App, jobs *reminder.Service) {
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
	applyTaskOverrides(logger, sched, overrides)

	sched.Start()
	logger.Info("scheduler started", slog.Int("tasks", sched.Status().TaskCount))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	sched.Stop()
}

// applyTaskOverrides adjusts registered tasks per the override file. Unknown
// task names are logged and skipped.
func applyTaskOverrides(logger *slog.Logger, sched *scheduler.Scheduler, overrides appconfig.TaskOverrides) {
	for name, override := range overrides {
		if override.Interval != nil {
			interval := time.Duration(*override.Interval)
			if err := sched.SetTaskInterval(name, interval); err != nil {
				logger.Warn("task override skipped", slog.String("task", name), slog.Any("error", err))
				continue
			}
			logger.Info("task interval overridden",
				slog.String("task", name), slog.Duration("interval", interval))
		}
		if override.Enabled != nil {
			if err := sched.SetTaskEnabled(name, *override.Enabled); err != nil {
				logger.Warn("task override skipped", slog.String("task", name), slog.Any("error", err))
				continue
			}
			logger.Info("task enablement overridden",
				slog.String("task", name), slog.Bool("enabled", *override.Enabled))
		}
	}
}

// runExternalCron is the fallback mode for deployments that disable the
// in-process scheduler: the same jobs run on cron expressions instead of
// fixed intervals.
func runExternalCron(ctx context.Context, logger *slog.Logger, jobs *reminder.Service) {
	timezone := config.GetEnvString("WORKER_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", timezone), slog.Any("error", err))
		loc = time.UTC
	}

	reminderSchedule := config.GetEnvString("CRON_REMINDER_SCHEDULE", "*/30 * * * *")
	snoozeSchedule := config.GetEnvString("CRON_SNOOZE_SCHEDULE", "0 3 * * *")
	budget := config.GetEnvInt("REMINDER_MAX_PER_RUN", 50)

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(reminderSchedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		report, err := jobs.SendReminders(runCtx, reminder.Options{MaxReminders: budget})
		if err != nil {
			logger.Error("reminder run failed", slog.String("error", respond.SanitizeError(err)))
			return
		}
		logger.Info("reminder run completed",
			slog.Int("alerts", report.AlertsProcessed),
			slog.Int("sent", report.RemindersSent),
			slog.Int("failed", report.RemindersFailed),
			slog.Bool("budget_exhausted", report.BudgetExhausted),
			slog.Duration("duration", report.Duration))
	})
	if err != nil {
		logger.Error("failed to add reminder cron job", slog.Any("error", err))
		os.Exit(1)
	}

	_, err = c.AddFunc(snoozeSchedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		report, err := jobs.ResetSnoozes(runCtx, false)
		if err != nil {
			logger.Error("snooze expiry run failed", slog.String("error", respond.SanitizeError(err)))
			return
		}
		logger.Info("snooze expiry run completed", slog.Int64("cleared", report.ResetCount))
	})
	if err != nil {
		logger.Error("failed to add snooze cron job", slog.Any("error", err))
		os.Exit(1)
	}

	c.Start()
	logger.Info("cron worker started",
		slog.String("reminder_schedule", reminderSchedule),
		slog.String("snooze_schedule", snoozeSchedule),
		slog.String("timezone", timezone))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	<-c.Stop().Done()
}
