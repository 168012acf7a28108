package repository

import (
	"context"

	"alerthub/internal/domain/entity"
)

type DeliveryRepository interface {
	// Upsert creates the delivery log row for (alert, user) on the first
	// attempt and overwrites status/error/message id while accumulating
	// the attempt count on subsequent attempts.
	Upsert(ctx context.Context, d *entity.Delivery) error
	ListByAlert(ctx context.Context, alertID int64) ([]*entity.Delivery, error)
	// ListFailed returns the delivery rows currently marked failed for an
	// alert. Manual retry re-attempts exactly this set.
	ListFailed(ctx context.Context, alertID int64) ([]*entity.Delivery, error)
}
