package entity

import (
	"fmt"
	"time"
)

// AlertStatus tracks one recipient's read/snooze/reminder state for one
// alert. Rows are unique on (AlertID, UserID), created lazily on the first
// user action or eagerly in bulk when an alert is published.
//
// Read is monotonic: once set it is never cleared. The snooze axis is
// orthogonal to read state. An expired snooze (SnoozedUntil in the past) is
// semantically "not snoozed" even before the expiry batch job clears the
// persisted flag, so reminder eligibility never depends on that job having
// run.
type AlertStatus struct {
	ID             int64
	AlertID        int64
	UserID         int64
	Read           bool
	Snoozed        bool
	SnoozedUntil   *time.Time
	LastRemindedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MarkRead transitions the status to read. Re-applying is a no-op; read
// state never reverts.
func (s *AlertStatus) MarkRead() {
	s.Read = true
}

// Snooze suppresses reminders until now+hours. A new snooze overwrites any
// prior one regardless of its state. Hours must be within
// [MinReminderFrequency, MaxReminderFrequency].
func (s *AlertStatus) Snooze(now time.Time, hours int) error {
	if hours < MinReminderFrequency || hours > MaxReminderFrequency {
		return fmt.Errorf("%w: %d hours (must be %d-%d)",
			ErrInvalidSnoozeDuration, hours, MinReminderFrequency, MaxReminderFrequency)
	}
	until := now.Add(time.Duration(hours) * time.Hour)
	s.Snoozed = true
	s.SnoozedUntil = &until
	return nil
}

// Unsnooze clears any snooze, active or expired.
func (s *AlertStatus) Unsnooze() {
	s.Snoozed = false
	s.SnoozedUntil = nil
}

// IsSnoozeActive reports whether a snooze is currently suppressing
// reminders. A snooze whose deadline has passed does not count, whether or
// not the expiry job has cleared the flag yet.
func (s *AlertStatus) IsSnoozeActive(now time.Time) bool {
	return s.Snoozed && s.SnoozedUntil != nil && now.Before(*s.SnoozedUntil)
}

// ShouldRemind is the eligibility predicate used by the reminder job. It is
// false for read rows, rows with an active snooze, and expired alerts. A
// never-reminded row is eligible immediately; otherwise the alert's
// reminder interval must have elapsed since the last reminder.
func (s *AlertStatus) ShouldRemind(alert *Alert, now time.Time) bool {
	if s.Read {
		return false
	}
	if s.IsSnoozeActive(now) {
		return false
	}
	if alert.IsExpired(now) {
		return false
	}
	if s.LastRemindedAt == nil {
		return true
	}
	interval := time.Duration(alert.ReminderFrequency) * time.Hour
	return now.Sub(*s.LastRemindedAt) >= interval
}
