// Package reminder implements the periodic notification jobs: re-sending
// alerts to recipients who have not read or snoozed them, and clearing
// snoozes whose deadline has passed.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"alerthub/internal/domain/entity"
	"alerthub/internal/repository"
	"alerthub/internal/usecase/dispatch"
)

// ErrMissingPhoneNumber indicates an SMS alert targeted a user with no phone
// number on file. The recipient is recorded as a failed delivery; other
// recipients are unaffected.
var ErrMissingPhoneNumber = errors.New("no phone number available")

// maxReportedFailures caps the failure detail carried in a Report so a bad
// run against a large audience cannot balloon the report.
const maxReportedFailures = 20

// Options controls one SendReminders run.
type Options struct {
	DryRun       bool  // report what would be sent without dispatching
	AlertID      int64 // restrict to one alert; 0 means all eligible alerts
	MaxReminders int   // halt after this many live sends; 0 means unlimited, ignored on dry runs
}

// Report summarizes one SendReminders run.
type Report struct {
	AlertsProcessed     int           `json:"alerts_processed"`
	RecipientsProcessed int           `json:"recipients_processed"`
	RemindersSent       int           `json:"reminders_sent"`
	RemindersFailed     int           `json:"reminders_failed"`
	BudgetExhausted     bool          `json:"budget_exhausted"`
	DryRun              bool          `json:"dry_run"`
	Duration            time.Duration `json:"duration_ns"`
	// Failures is capped at maxReportedFailures.
	Failures []string `json:"failures,omitempty"`
}

// SnoozeReport summarizes one ResetSnoozes run.
type SnoozeReport struct {
	TotalSnoozed     int64 `json:"total_snoozed"`
	ActiveSnoozed    int64 `json:"active_snoozed"`
	ExpiredRemaining int64 `json:"expired_remaining"`
	ResetCount       int64 `json:"reset_count"`
	DryRun           bool  `json:"dry_run"`
	// Preview is populated on dry runs only, capped at 10 rows.
	Preview []*entity.AlertStatus `json:"preview,omitempty"`
}

// Service runs the reminder and snooze-expiry jobs over the repositories and
// the delivery dispatcher.
type Service struct {
	Alerts     repository.AlertRepository
	Statuses   repository.AlertStatusRepository
	Deliveries repository.DeliveryRepository
	Users      repository.UserRepository
	Dispatcher *dispatch.Dispatcher

	Logger *slog.Logger
	Now    func() time.Time // defaults to time.Now
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SendReminders scans reminder-enabled, currently-active alerts and
// re-sends each one to every recipient whose status passes ShouldRemind.
// Failures are isolated per recipient. A positive MaxReminders halts the
// scan once that many reminders have been sent. Dry runs read existing
// status rows only, never dispatch or write, and preview every would-send
// without consuming the budget.
func (s *Service) SendReminders(ctx context.Context, opts Options) (*Report, error) {
	start := s.now()
	report := &Report{DryRun: opts.DryRun}
	log := s.logger()

	alerts, err := s.eligibleAlerts(ctx, opts.AlertID, start)
	if err != nil {
		return nil, fmt.Errorf("SendReminders: %w", err)
	}

	for _, alert := range alerts {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("SendReminders: %w", err)
		}
		report.AlertsProcessed++

		recipients, err := s.Users.ListRecipients(ctx, alert)
		if err != nil {
			log.Error("resolve recipients failed",
				slog.Int64("alert_id", alert.ID),
				slog.String("error", err.Error()))
			report.addFailure(fmt.Sprintf("alert %d: resolve recipients: %v", alert.ID, err))
			continue
		}

		var existing map[int64]*entity.AlertStatus
		if opts.DryRun {
			existing, err = s.statusIndex(ctx, alert.ID)
			if err != nil {
				log.Error("load statuses failed",
					slog.Int64("alert_id", alert.ID),
					slog.String("error", err.Error()))
				report.addFailure(fmt.Sprintf("alert %d: load statuses: %v", alert.ID, err))
				continue
			}
		}

		for _, user := range recipients {
			if !opts.DryRun && opts.MaxReminders > 0 && report.RemindersSent >= opts.MaxReminders {
				report.BudgetExhausted = true
				break
			}
			report.RecipientsProcessed++

			if err := s.remindOne(ctx, alert, user, report, opts.DryRun, existing); err != nil {
				report.RemindersFailed++
				report.addFailure(fmt.Sprintf("alert %d user %d: %v", alert.ID, user.ID, err))
				log.Warn("reminder failed",
					slog.Int64("alert_id", alert.ID),
					slog.Int64("user_id", user.ID),
					slog.String("error", err.Error()))
			}
		}
		if report.BudgetExhausted {
			break
		}
	}

	report.Duration = s.now().Sub(start)
	recordReminderRun(report)
	log.Info("reminder run complete",
		slog.Int("alerts", report.AlertsProcessed),
		slog.Int("recipients", report.RecipientsProcessed),
		slog.Int("sent", report.RemindersSent),
		slog.Int("failed", report.RemindersFailed),
		slog.Bool("dry_run", report.DryRun))
	return report, nil
}

// remindOne sends one reminder to one recipient and records the outcome in
// the delivery log. It returns an error only for this recipient's failure;
// the caller decides whether the run continues. On a dry run the status
// comes from the pre-loaded existing index and nothing is written.
func (s *Service) remindOne(ctx context.Context, alert *entity.Alert, user *entity.User, report *Report, dryRun bool, existing map[int64]*entity.AlertStatus) error {
	now := s.now()

	var status *entity.AlertStatus
	if dryRun {
		status = existing[user.ID]
		if status == nil {
			// A recipient without a row yet behaves like a fresh unread
			// status, matching what GetOrCreate would insert on a live run.
			status = &entity.AlertStatus{AlertID: alert.ID, UserID: user.ID}
		}
	} else {
		var err error
		status, err = s.Statuses.GetOrCreate(ctx, alert.ID, user.ID)
		if err != nil {
			return fmt.Errorf("get status: %w", err)
		}
	}
	if !status.ShouldRemind(alert, now) {
		return nil
	}

	recipient, err := recipientAddress(alert.DeliveryKind, user)
	if err != nil {
		if !dryRun {
			s.recordDelivery(ctx, alert, user, dispatch.Result{
				Status:    entity.DeliveryFailed,
				Channel:   alert.DeliveryKind,
				Timestamp: now,
				Error:     err.Error(),
				Attempts:  1,
			})
		}
		return err
	}

	if dryRun {
		report.RemindersSent++
		return nil
	}

	result := s.Dispatcher.Send(ctx, alert.DeliveryKind, recipient,
		"REMINDER: "+alert.Title, alert.MessageBody, reminderMetadata(alert), true)
	s.recordDelivery(ctx, alert, user, result)

	if !result.Succeeded() {
		return errors.New(result.Error)
	}
	if err := s.Statuses.TouchReminded(ctx, status.ID, now); err != nil {
		// The reminder went out; a bookkeeping failure must not turn it
		// into a recipient failure, but the next run will re-send early.
		s.logger().Error("touch reminded failed",
			slog.Int64("status_id", status.ID),
			slog.String("error", err.Error()))
	}
	report.RemindersSent++
	return nil
}

// statusIndex loads the existing status rows for one alert keyed by user,
// so dry runs can evaluate recipients without inserting anything.
func (s *Service) statusIndex(ctx context.Context, alertID int64) (map[int64]*entity.AlertStatus, error) {
	statuses, err := s.Statuses.ListByAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	index := make(map[int64]*entity.AlertStatus, len(statuses))
	for _, st := range statuses {
		index[st.UserID] = st
	}
	return index, nil
}

// eligibleAlerts returns the alerts this run should scan, already filtered
// to the activation window at now.
func (s *Service) eligibleAlerts(ctx context.Context, alertID int64, now time.Time) ([]*entity.Alert, error) {
	if alertID != 0 {
		alert, err := s.Alerts.Get(ctx, alertID)
		if err != nil {
			return nil, err
		}
		if !alert.ReminderEnabled || !alert.IsCurrentlyActive(now) {
			return nil, nil
		}
		return []*entity.Alert{alert}, nil
	}

	alerts, err := s.Alerts.ListReminderEligible(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]*entity.Alert, 0, len(alerts))
	for _, alert := range alerts {
		if alert.IsCurrentlyActive(now) {
			active = append(active, alert)
		}
	}
	return active, nil
}

func (s *Service) recordDelivery(ctx context.Context, alert *entity.Alert, user *entity.User, result dispatch.Result) {
	at := result.Timestamp
	d := &entity.Delivery{
		AlertID:       alert.ID,
		UserID:        user.ID,
		Channel:       alert.DeliveryKind,
		Recipient:     result.Recipient,
		Status:        result.Status,
		MessageID:     result.MessageID,
		ErrorMessage:  result.Error,
		AttemptCount:  result.Attempts,
		LastAttemptAt: &at,
		Metadata:      reminderMetadata(alert),
	}
	if result.Succeeded() {
		d.DeliveredAt = &at
	}
	if err := s.Deliveries.Upsert(ctx, d); err != nil {
		s.logger().Error("delivery log upsert failed",
			slog.Int64("alert_id", alert.ID),
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()))
	}
}

// ResetSnoozes clears every snooze whose deadline has passed. In dry-run
// mode it reports what would be cleared, with a capped row preview, without
// writing anything.
func (s *Service) ResetSnoozes(ctx context.Context, dryRun bool) (*SnoozeReport, error) {
	now := s.now()
	log := s.logger()

	stats, err := s.Statuses.SnoozeStats(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("ResetSnoozes: %w", err)
	}
	report := &SnoozeReport{
		TotalSnoozed:  stats.TotalSnoozed,
		ActiveSnoozed: stats.ActiveSnoozed,
		DryRun:        dryRun,
	}

	if dryRun {
		report.ResetCount = stats.ExpiredCount
		report.ExpiredRemaining = stats.ExpiredCount
		preview, err := s.Statuses.ListExpiredSnoozes(ctx, now, 10)
		if err != nil {
			return nil, fmt.Errorf("ResetSnoozes: %w", err)
		}
		report.Preview = preview
		return report, nil
	}

	cleared, err := s.Statuses.ExpireSnoozes(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("ResetSnoozes: %w", err)
	}
	report.ResetCount = cleared
	if remaining := stats.ExpiredCount - cleared; remaining > 0 {
		report.ExpiredRemaining = remaining
	}
	recordSnoozeRun(cleared)
	log.Info("snooze expiry run complete",
		slog.Int64("cleared", cleared),
		slog.Int64("active_remaining", stats.ActiveSnoozed))
	return report, nil
}

func (r *Report) addFailure(detail string) {
	if len(r.Failures) < maxReportedFailures {
		r.Failures = append(r.Failures, detail)
	}
}

// recipientAddress resolves the transport address for a delivery kind.
func recipientAddress(kind string, user *entity.User) (string, error) {
	switch kind {
	case entity.KindEmail:
		return user.Email, nil
	case entity.KindSMS:
		if user.PhoneNumber == "" {
			return "", ErrMissingPhoneNumber
		}
		return user.PhoneNumber, nil
	case entity.KindInApp:
		return strconv.FormatInt(user.ID, 10), nil
	default:
		return "", fmt.Errorf("unknown delivery kind %q", kind)
	}
}

func reminderMetadata(alert *entity.Alert) map[string]any {
	return map[string]any{
		"alert_id": alert.ID,
		"severity": alert.Severity,
		"reminder": true,
	}
}
