package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"alerthub/internal/domain/entity"
	"alerthub/internal/repository"
)

const deliveryColumns = `
id, alert_id, user_id, channel, recipient, status, message_id,
error_message, attempt_count, last_attempt_at, delivered_at, metadata, created_at`

type DeliveryRepo struct{ db executor }

func NewDeliveryRepo(db executor) repository.DeliveryRepository {
	return &DeliveryRepo{db: db}
}

func scanDelivery(s interface{ Scan(...any) error }) (*entity.Delivery, error) {
	var d entity.Delivery
	var metadataJSON []byte
	err := s.Scan(
		&d.ID, &d.AlertID, &d.UserID, &d.Channel, &d.Recipient, &d.Status, &d.MessageID,
		&d.ErrorMessage, &d.AttemptCount, &d.LastAttemptAt, &d.DeliveredAt, &metadataJSON, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &d.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &d, nil
}

// Upsert writes the audit row for one (alert, user) delivery attempt-set.
// The conflict branch overwrites the outcome fields and accumulates the
// attempt count, preserving the row as an append/overwrite hybrid trail.
func (repo *DeliveryRepo) Upsert(ctx context.Context, d *entity.Delivery) error {
	var metadataJSON []byte
	if d.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("Upsert: marshal metadata: %w", err)
		}
	}

	const query = `
INSERT INTO notification_deliveries (
    alert_id, user_id, channel, recipient, status, message_id,
    error_message, attempt_count, last_attempt_at, delivered_at, metadata
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (alert_id, user_id) DO UPDATE SET
    channel         = EXCLUDED.channel,
    recipient       = EXCLUDED.recipient,
    status          = EXCLUDED.status,
    message_id      = EXCLUDED.message_id,
    error_message   = EXCLUDED.error_message,
    attempt_count   = notification_deliveries.attempt_count + EXCLUDED.attempt_count,
    last_attempt_at = EXCLUDED.last_attempt_at,
    delivered_at    = EXCLUDED.delivered_at,
    metadata        = EXCLUDED.metadata
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		d.AlertID, d.UserID, d.Channel, d.Recipient, d.Status, d.MessageID,
		d.ErrorMessage, d.AttemptCount, d.LastAttemptAt, d.DeliveredAt, metadataJSON,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func (repo *DeliveryRepo) ListByAlert(ctx context.Context, alertID int64) ([]*entity.Delivery, error) {
	query := `
SELECT` + deliveryColumns + `
FROM notification_deliveries
WHERE alert_id = $1
ORDER BY id ASC`
	return repo.queryDeliveries(ctx, "ListByAlert", query, alertID)
}

func (repo *DeliveryRepo) ListFailed(ctx context.Context, alertID int64) ([]*entity.Delivery, error) {
	query := `
SELECT` + deliveryColumns + `
FROM notification_deliveries
WHERE alert_id = $1
  AND status = 'failed'
ORDER BY id ASC`
	return repo.queryDeliveries(ctx, "ListFailed", query, alertID)
}

func (repo *DeliveryRepo) queryDeliveries(ctx context.Context, op, query string, args ...any) ([]*entity.Delivery, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	deliveries := make([]*entity.Delivery, 0, 50)
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}
