package entity

import (
	"testing"
	"time"
)

func validAlert() *Alert {
	return &Alert{
		Title:             "deploy freeze",
		MessageBody:       "no deploys until monday",
		Severity:          SeverityWarning,
		DeliveryKind:      KindInApp,
		Visibility:        VisibilityOrganization,
		ReminderFrequency: 2,
		ReminderEnabled:   true,
		Active:            true,
	}
}

func TestAlert_Validate(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name    string
		mutate  func(*Alert)
		wantErr bool
	}{
		{"valid", func(a *Alert) {}, false},
		{"empty title", func(a *Alert) { a.Title = "" }, true},
		{"empty body", func(a *Alert) { a.MessageBody = "" }, true},
		{"bad severity", func(a *Alert) { a.Severity = "urgent" }, true},
		{"bad delivery kind", func(a *Alert) { a.DeliveryKind = "pigeon" }, true},
		{"bad visibility", func(a *Alert) { a.Visibility = "everyone" }, true},
		{"reminder frequency too low", func(a *Alert) { a.ReminderFrequency = 0 }, true},
		{"reminder frequency too high", func(a *Alert) { a.ReminderFrequency = 200 }, true},
		{"frequency ignored when reminders disabled", func(a *Alert) {
			a.ReminderEnabled = false
			a.ReminderFrequency = 0
		}, false},
		{"expires before starts", func(a *Alert) {
			a.StartsAt = &now
			a.ExpiresAt = &earlier
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAlert()
			tt.mutate(a)
			err := a.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestAlert_ActivationWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name       string
		alert      Alert
		wantActive bool
	}{
		{"no window", Alert{Active: true}, true},
		{"started, not expired", Alert{Active: true, StartsAt: &past, ExpiresAt: &future}, true},
		{"not yet started", Alert{Active: true, StartsAt: &future}, false},
		{"expired", Alert{Active: true, ExpiresAt: &past}, false},
		{"expiry boundary is expired", Alert{Active: true, ExpiresAt: &now}, false},
		{"start boundary is started", Alert{Active: true, StartsAt: &now}, true},
		{"soft deleted", Alert{Active: false}, false},
		{"archived", Alert{Active: true, Archived: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.alert.IsCurrentlyActive(now); got != tt.wantActive {
				t.Errorf("IsCurrentlyActive() = %v, want %v", got, tt.wantActive)
			}
		})
	}
}

func TestAlertRecipient_Validate(t *testing.T) {
	team := int64(1)
	user := int64(2)

	tests := []struct {
		name    string
		rec     AlertRecipient
		wantErr bool
	}{
		{"team only", AlertRecipient{AlertID: 1, TeamID: &team}, false},
		{"user only", AlertRecipient{AlertID: 1, UserID: &user}, false},
		{"both set", AlertRecipient{AlertID: 1, TeamID: &team, UserID: &user}, true},
		{"neither set", AlertRecipient{AlertID: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
