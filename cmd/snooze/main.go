// Package main provides a one-shot CLI for the snooze-expiry job, suitable
// for external cron. Usage: alerthub-snooze [-dry-run]
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

	pgRepo "alerthub/internal/infra/adapter/persistence/postgres"
	"alerthub/internal/infra/db"
	"alerthub/internal/usecase/reminder"
)

func main() {
	var (
		dryRun       bool
		outputFormat string
	)

	flag.BoolVar(&dryRun, "dry-run", false, "Report what would be cleared without resetting")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.Parse()

	logger := initLogger()

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	// The snooze job never dispatches, so no channel registry is wired.
	jobs := &reminder.Service{
		Alerts:     pgRepo.NewAlertRepo(database),
		Statuses:   pgRepo.NewAlertStatusRepo(database),
		Deliveries: pgRepo.NewDeliveryRepo(database),
		Users:      pgRepo.NewUserRepo(database),
		Logger:     logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := jobs.ResetSnoozes(ctx, dryRun)
	if err != nil {
		logger.Error("snooze expiry run failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: snooze expiry run failed: %v\n", err)
		os.Exit(1)
	}

	if outputFormat == "json" {
		outputJSON(report)
	} else {
		outputText(report)
	}
}

// outputText prints the run report in human-readable form.
func outputText(report *reminder.SnoozeReport) {
	mode := "live"
	if report.DryRun {
		mode = "dry-run"
	}
	fmt.Printf("Snooze expiry run (%s) completed\n", mode)
	fmt.Printf("  Total snoozed:      %d\n", report.TotalSnoozed)
	fmt.Printf("  Active snoozes:     %d\n", report.ActiveSnoozed)
	fmt.Printf("  Snoozes cleared:    %d\n", report.ResetCount)
	fmt.Printf("  Expired remaining:  %d\n", report.ExpiredRemaining)
	for _, status := range report.Preview {
		until := "unknown"
		if status.SnoozedUntil != nil {
			until = status.SnoozedUntil.Format(time.RFC3339)
		}
		fmt.Printf("  would clear: alert %d user %d (snoozed until %s)\n",
			status.AlertID, status.UserID, until)
	}
}

// outputJSON prints the run report as indented JSON.
func outputJSON(report *reminder.SnoozeReport) {
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
