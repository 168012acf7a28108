// Package entity defines the core domain entities and validation logic for the
// alerting platform. It contains the fundamental business objects such as Alert,
// AlertStatus, and Delivery, along with their validation rules and domain-specific
// errors.
package entity

import (
	"fmt"
	"time"
)

// Severity levels an alert can carry.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Delivery kinds supported by the notification pipeline.
const (
	KindEmail = "email"
	KindSMS   = "sms"
	KindInApp = "in_app"
)

// Visibility scopes controlling how an alert's recipient set is resolved.
const (
	VisibilityOrganization = "organization"
	VisibilityTeams        = "teams"
	VisibilityUsers        = "users"
)

// Reminder interval bounds in hours.
const (
	MinReminderFrequency = 1
	MaxReminderFrequency = 168 // one week
)

// Alert represents a published message with severity, delivery kind, and
// visibility scope. Alerts are soft-deleted only: Active is flipped off,
// the row is never removed.
type Alert struct {
	ID                int64
	Title             string
	MessageBody       string
	Severity          string
	DeliveryKind      string
	Visibility        string
	ReminderFrequency int // hours between reminders
	ReminderEnabled   bool
	StartsAt          *time.Time
	ExpiresAt         *time.Time
	Active            bool
	Archived          bool
	CreatedBy         int64 // immutable creator reference
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsStarted reports whether the alert's activation window has opened.
// An alert with no StartsAt is considered started.
func (a *Alert) IsStarted(now time.Time) bool {
	return a.StartsAt == nil || !a.StartsAt.After(now)
}

// IsExpired reports whether the alert's activation window has closed.
// An alert with no ExpiresAt never expires.
func (a *Alert) IsExpired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}

// IsCurrentlyActive reports whether the alert should be visible and
// reminder-eligible right now: not soft-deleted, not archived, started,
// and not expired.
func (a *Alert) IsCurrentlyActive(now time.Time) bool {
	return a.Active && !a.Archived && a.IsStarted(now) && !a.IsExpired(now)
}

// Validate validates the Alert entity fields.
func (a *Alert) Validate() error {
	if a.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if a.MessageBody == "" {
		return &ValidationError{Field: "message_body", Message: "message body is required"}
	}

	switch a.Severity {
	case SeverityInfo, SeverityWarning, SeverityCritical:
	default:
		return &ValidationError{
			Field:   "severity",
			Message: fmt.Sprintf("invalid severity %q (must be info, warning, or critical)", a.Severity),
		}
	}

	switch a.DeliveryKind {
	case KindEmail, KindSMS, KindInApp:
	default:
		return &ValidationError{
			Field:   "delivery_kind",
			Message: fmt.Sprintf("invalid delivery kind %q (must be email, sms, or in_app)", a.DeliveryKind),
		}
	}

	switch a.Visibility {
	case VisibilityOrganization, VisibilityTeams, VisibilityUsers:
	default:
		return &ValidationError{
			Field:   "visibility",
			Message: fmt.Sprintf("invalid visibility %q (must be organization, teams, or users)", a.Visibility),
		}
	}

	if a.ReminderEnabled {
		if a.ReminderFrequency < MinReminderFrequency || a.ReminderFrequency > MaxReminderFrequency {
			return &ValidationError{
				Field: "reminder_frequency",
				Message: fmt.Sprintf("reminder frequency must be between %d and %d hours",
					MinReminderFrequency, MaxReminderFrequency),
			}
		}
	}

	if a.StartsAt != nil && a.ExpiresAt != nil && !a.ExpiresAt.After(*a.StartsAt) {
		return &ValidationError{Field: "expires_at", Message: "expires_at must be after starts_at"}
	}

	return nil
}
