package scheduler

import (
	"context"
	"fmt"
	"time"

	"alerthub/internal/usecase/reminder"
)

// Standard task names, shared with the control API's run-task endpoint.
const (
	TaskSendReminders = "send_reminders"
	TaskResetSnoozes  = "reset_snoozes"
)

const (
	defaultReminderInterval = 30 * time.Minute
	defaultReminderBudget   = 50
	defaultSnoozeInterval   = 24 * time.Hour
)

// RegisterDefaultTasks registers the standard platform jobs: reminders every
// 30 minutes with a per-run budget, and snooze expiry once a day.
func RegisterDefaultTasks(s *Scheduler, jobs *reminder.Service) error {
	remindTask := NewTask(TaskSendReminders, defaultReminderInterval, func(ctx context.Context) (string, error) {
		report, err := jobs.SendReminders(ctx, reminder.Options{MaxReminders: defaultReminderBudget})
		if err != nil {
			return "", err
		}
		msg := fmt.Sprintf("sent %d reminders to %d recipients across %d alerts",
			report.RemindersSent, report.RecipientsProcessed, report.AlertsProcessed)
		if report.BudgetExhausted {
			msg += " (budget exhausted)"
		}
		return msg, nil
	})
	if err := s.Register(remindTask); err != nil {
		return err
	}

	snoozeTask := NewTask(TaskResetSnoozes, defaultSnoozeInterval, func(ctx context.Context) (string, error) {
		report, err := jobs.ResetSnoozes(ctx, false)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("cleared %d expired snoozes", report.ResetCount), nil
	})
	return s.Register(snoozeTask)
}
