package repository

import (
	"context"

	"alerthub/internal/domain/entity"
)

type AlertRepository interface {
	Get(ctx context.Context, id int64) (*entity.Alert, error)
	List(ctx context.Context) ([]*entity.Alert, error)
	// ListReminderEligible returns active, non-archived alerts with
	// reminders enabled. Activation-window filtering is left to the
	// caller since "currently active" depends on the caller's clock.
	ListReminderEligible(ctx context.Context) ([]*entity.Alert, error)
	Create(ctx context.Context, alert *entity.Alert) error
	Update(ctx context.Context, alert *entity.Alert) error
	Archive(ctx context.Context, id int64) error
	SetReminderEnabled(ctx context.Context, id int64, enabled bool) error
}
