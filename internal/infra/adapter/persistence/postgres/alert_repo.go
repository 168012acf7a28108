// Package postgres provides PostgreSQL implementations of the repository
// interfaces. Queries use plain database/sql against the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"alerthub/internal/domain/entity"
	"alerthub/internal/repository"
)

const alertColumns = `
id, title, message_body, severity, delivery_kind, visibility,
reminder_frequency, reminder_enabled, starts_at, expires_at,
is_active, is_archived, created_by, created_at, updated_at`

type AlertRepo struct{ db executor }

func NewAlertRepo(db executor) repository.AlertRepository {
	return &AlertRepo{db: db}
}

func scanAlert(s interface{ Scan(...any) error }) (*entity.Alert, error) {
	var a entity.Alert
	err := s.Scan(
		&a.ID, &a.Title, &a.MessageBody, &a.Severity, &a.DeliveryKind, &a.Visibility,
		&a.ReminderFrequency, &a.ReminderEnabled, &a.StartsAt, &a.ExpiresAt,
		&a.Active, &a.Archived, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (repo *AlertRepo) Get(ctx context.Context, id int64) (*entity.Alert, error) {
	query := `
SELECT` + alertColumns + `
FROM alerts
WHERE id = $1
LIMIT 1`
	alert, err := scanAlert(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return alert, nil
}

func (repo *AlertRepo) List(ctx context.Context) ([]*entity.Alert, error) {
	query := `
SELECT` + alertColumns + `
FROM alerts
WHERE is_active = TRUE
ORDER BY id ASC`
	return repo.queryAlerts(ctx, "List", query)
}

func (repo *AlertRepo) ListReminderEligible(ctx context.Context) ([]*entity.Alert, error) {
	query := `
SELECT` + alertColumns + `
FROM alerts
WHERE is_active = TRUE
  AND is_archived = FALSE
  AND reminder_enabled = TRUE
ORDER BY id ASC`
	return repo.queryAlerts(ctx, "ListReminderEligible", query)
}

func (repo *AlertRepo) queryAlerts(ctx context.Context, op, query string, args ...any) ([]*entity.Alert, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	alerts := make([]*entity.Alert, 0, 20)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

func (repo *AlertRepo) Create(ctx context.Context, alert *entity.Alert) error {
	if err := alert.Validate(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	const query = `
INSERT INTO alerts (
    title, message_body, severity, delivery_kind, visibility,
    reminder_frequency, reminder_enabled, starts_at, expires_at,
    is_active, is_archived, created_by
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, created_at, updated_at`
	err := repo.db.QueryRowContext(ctx, query,
		alert.Title, alert.MessageBody, alert.Severity, alert.DeliveryKind, alert.Visibility,
		alert.ReminderFrequency, alert.ReminderEnabled, alert.StartsAt, alert.ExpiresAt,
		alert.Active, alert.Archived, alert.CreatedBy,
	).Scan(&alert.ID, &alert.CreatedAt, &alert.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *AlertRepo) Update(ctx context.Context, alert *entity.Alert) error {
	if err := alert.Validate(); err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	// created_by is immutable and deliberately absent from the SET list.
	const query = `
UPDATE alerts SET
       title              = $1,
       message_body       = $2,
       severity           = $3,
       delivery_kind      = $4,
       visibility         = $5,
       reminder_frequency = $6,
       reminder_enabled   = $7,
       starts_at          = $8,
       expires_at         = $9,
       is_active          = $10,
       is_archived        = $11,
       updated_at         = NOW()
WHERE id = $12`
	res, err := repo.db.ExecContext(ctx, query,
		alert.Title, alert.MessageBody, alert.Severity, alert.DeliveryKind, alert.Visibility,
		alert.ReminderFrequency, alert.ReminderEnabled, alert.StartsAt, alert.ExpiresAt,
		alert.Active, alert.Archived, alert.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *AlertRepo) Archive(ctx context.Context, id int64) error {
	const query = `UPDATE alerts SET is_archived = TRUE, updated_at = NOW() WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Archive: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Archive: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *AlertRepo) SetReminderEnabled(ctx context.Context, id int64, enabled bool) error {
	const query = `UPDATE alerts SET reminder_enabled = $1, updated_at = NOW() WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, enabled, id)
	if err != nil {
		return fmt.Errorf("SetReminderEnabled: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("SetReminderEnabled: %w", entity.ErrNotFound)
	}
	return nil
}
