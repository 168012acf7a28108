package repository

import (
	"context"
	"time"

	"alerthub/internal/domain/entity"
)

// SnoozeStats summarizes snooze state across all status rows. After a
// successful expiry run ExpiredRemaining is expected to be zero.
type SnoozeStats struct {
	TotalSnoozed  int64
	ActiveSnoozed int64
	ExpiredCount  int64
}

type AlertStatusRepository interface {
	// GetOrCreate returns the status row for (alert, user), inserting an
	// unread, unsnoozed row if none exists. Concurrent callers for the
	// same pair must converge on one row.
	GetOrCreate(ctx context.Context, alertID, userID int64) (*entity.AlertStatus, error)
	ListByAlert(ctx context.Context, alertID int64) ([]*entity.AlertStatus, error)
	// BulkCreate inserts one row per user, ignoring pairs that already
	// exist. Used when an alert is published to its resolved audience.
	BulkCreate(ctx context.Context, alertID int64, userIDs []int64) error
	Update(ctx context.Context, status *entity.AlertStatus) error
	// TouchReminded sets last_reminded_at after a successful reminder.
	TouchReminded(ctx context.Context, id int64, t time.Time) error
	// ExpireSnoozes clears every snooze whose deadline passed before now
	// in one bulk update and returns the number of rows cleared.
	ExpireSnoozes(ctx context.Context, now time.Time) (int64, error)
	// ListExpiredSnoozes returns rows that ExpireSnoozes would clear,
	// capped at limit. Used by the dry-run preview.
	ListExpiredSnoozes(ctx context.Context, now time.Time, limit int) ([]*entity.AlertStatus, error)
	SnoozeStats(ctx context.Context, now time.Time) (*SnoozeStats, error)
}
