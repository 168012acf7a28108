// Package main provides a one-shot CLI for the reminder job, suitable for
// external cron. Usage: alerthub-remind [-dry-run] [-alert-id N] [-max-reminders N]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"alerthub/internal/domain/entity"
	pgRepo "alerthub/internal/infra/adapter/persistence/postgres"
	"alerthub/internal/infra/db"
	appconfig "alerthub/internal/pkg/config"
	"alerthub/internal/usecase/dispatch"
	"alerthub/internal/usecase/reminder"
)

func main() {
	var (
		dryRun       bool
		alertID      int64
		maxReminders int
		outputFormat string
	)

	flag.BoolVar(&dryRun, "dry-run", false, "Report what would be sent without dispatching")
	flag.Int64Var(&alertID, "alert-id", 0, "Restrict the run to one alert (0 = all eligible alerts)")
	flag.IntVar(&maxReminders, "max-reminders", 50, "Halt after this many reminders (0 = unlimited)")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.Parse()

	logger := initLogger()
	cfg := appconfig.Load()

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

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
	registry.Register(entity.KindInApp, dispatch.NewInAppChannel(pgRepo.NewInboxStore(database), logger))

	jobs := &reminder.Service{
		Alerts:     pgRepo.NewAlertRepo(database),
		Statuses:   pgRepo.NewAlertStatusRepo(database),
		Deliveries: pgRepo.NewDeliveryRepo(database),
		Users:      pgRepo.NewUserRepo(database),
		Dispatcher: dispatch.NewDispatcher(registry, logger),
		Logger:     logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	report, err := jobs.SendReminders(ctx, reminder.Options{
		DryRun:       dryRun,
		AlertID:      alertID,
		MaxReminders: maxReminders,
	})
	if err != nil {
		logger.Error("reminder run failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: reminder run failed: %v\n", err)
		os.Exit(1)
	}

	if outputFormat == "json" {
		outputJSON(report)
	} else {
		outputText(report)
	}

	if report.RemindersFailed > 0 {
		os.Exit(1)
	}
}

// outputText prints the run report in human-readable form.
func outputText(report *reminder.Report) {
	mode := "live"
	if report.DryRun {
		mode = "dry-run"
	}
	fmt.Printf("Reminder run (%s) completed in %s\n", mode, report.Duration.Round(time.Millisecond))
	fmt.Printf("  Alerts processed:     %d\n", report.AlertsProcessed)
	fmt.Printf("  Recipients processed: %d\n", report.RecipientsProcessed)
	fmt.Printf("  Reminders sent:       %d\n", report.RemindersSent)
	fmt.Printf("  Reminders failed:     %d\n", report.RemindersFailed)
	if report.BudgetExhausted {
		fmt.Println("  Budget exhausted: remaining recipients deferred to the next run")
	}
	for _, failure := range report.Failures {
		fmt.Printf("  failure: %s\n", failure)
	}
}

// outputJSON prints the run report as indented JSON.
func outputJSON(report *reminder.Report) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to encode JSON: %v\n", err)
		os.Exit(1)
	}
}

// initLogger initializes a structured logger on stderr so report output
// stays clean on stdout.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}
