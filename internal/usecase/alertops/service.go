// Package alertops implements the control-plane alert operations: manual
// dispatch of an alert to its resolved audience, retry of previously failed
// deliveries, and the delivery log view.
package alertops

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"alerthub/internal/domain/entity"
	"alerthub/internal/repository"
	"alerthub/internal/usecase/dispatch"
)

// DispatchReport summarizes one manual send or retry.
type DispatchReport struct {
	AlertID    int64 `json:"alert_id"`
	Recipients int   `json:"recipients"`
	Sent       int   `json:"sent"`
	Failed     int   `json:"failed"`
}

// Service wires the repositories and the dispatcher for control operations.
type Service struct {
	Alerts     repository.AlertRepository
	Statuses   repository.AlertStatusRepository
	Deliveries repository.DeliveryRepository
	Users      repository.UserRepository
	Dispatcher *dispatch.Dispatcher

	Logger *slog.Logger
	Now    func() time.Time
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

// SendAlert dispatches the alert to every resolved recipient, seeding status
// rows for the audience first so read/snooze tracking starts at publish.
// Individual recipient failures are recorded and do not abort the batch.
func (s *Service) SendAlert(ctx context.Context, alertID int64) (*DispatchReport, error) {
	alert, err := s.Alerts.Get(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("SendAlert: %w", err)
	}
	if !alert.Active || alert.Archived {
		return nil, fmt.Errorf("SendAlert: %w: alert %d is not active", entity.ErrInvalidInput, alertID)
	}

	recipients, err := s.Users.ListRecipients(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("SendAlert: %w", err)
	}

	userIDs := make([]int64, 0, len(recipients))
	for _, u := range recipients {
		userIDs = append(userIDs, u.ID)
	}
	if err := s.Statuses.BulkCreate(ctx, alert.ID, userIDs); err != nil {
		return nil, fmt.Errorf("SendAlert: %w", err)
	}

	report := &DispatchReport{AlertID: alert.ID, Recipients: len(recipients)}
	for _, user := range recipients {
		if s.deliverTo(ctx, alert, user) {
			report.Sent++
		} else {
			report.Failed++
		}
	}

	s.logger().Info("manual alert dispatch complete",
		slog.Int64("alert_id", alert.ID),
		slog.Int("recipients", report.Recipients),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed))
	return report, nil
}

// RetryFailed re-dispatches exactly the (alert, user) pairs whose delivery
// rows are currently marked failed.
func (s *Service) RetryFailed(ctx context.Context, alertID int64) (*DispatchReport, error) {
	alert, err := s.Alerts.Get(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("RetryFailed: %w", err)
	}

	failed, err := s.Deliveries.ListFailed(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("RetryFailed: %w", err)
	}

	report := &DispatchReport{AlertID: alert.ID, Recipients: len(failed)}
	for _, d := range failed {
		user, err := s.Users.Get(ctx, d.UserID)
		if err != nil {
			report.Failed++
			s.logger().Warn("retry skipped, user lookup failed",
				slog.Int64("alert_id", alertID),
				slog.Int64("user_id", d.UserID),
				slog.String("error", err.Error()))
			continue
		}
		if s.deliverTo(ctx, alert, user) {
			report.Sent++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

// ListDeliveries returns the delivery log for an alert.
func (s *Service) ListDeliveries(ctx context.Context, alertID int64) ([]*entity.Delivery, error) {
	if _, err := s.Alerts.Get(ctx, alertID); err != nil {
		return nil, fmt.Errorf("ListDeliveries: %w", err)
	}
	deliveries, err := s.Deliveries.ListByAlert(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("ListDeliveries: %w", err)
	}
	return deliveries, nil
}

// deliverTo sends the alert to one recipient and records the outcome in the
// delivery log. Returns true when the transport accepted the message.
func (s *Service) deliverTo(ctx context.Context, alert *entity.Alert, user *entity.User) bool {
	now := s.now()
	metadata := map[string]any{
		"alert_id": alert.ID,
		"severity": alert.Severity,
	}

	recipient, err := recipientAddress(alert.DeliveryKind, user)
	var result dispatch.Result
	if err != nil {
		result = dispatch.Result{
			Status:    entity.DeliveryFailed,
			Channel:   alert.DeliveryKind,
			Timestamp: now,
			Error:     err.Error(),
			Attempts:  1,
		}
	} else {
		result = s.Dispatcher.Send(ctx, alert.DeliveryKind, recipient, alert.Title, alert.MessageBody, metadata, true)
	}

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
		Metadata:      metadata,
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
	return result.Succeeded()
}

func recipientAddress(kind string, user *entity.User) (string, error) {
	switch kind {
	case entity.KindEmail:
		return user.Email, nil
	case entity.KindSMS:
		if user.PhoneNumber == "" {
			return "", fmt.Errorf("no phone number available for user %d", user.ID)
		}
		return user.PhoneNumber, nil
	case entity.KindInApp:
		return strconv.FormatInt(user.ID, 10), nil
	default:
		return "", fmt.Errorf("unknown delivery kind %q", kind)
	}
}
