package postgres

import (
	"context"
	"fmt"
	"time"

	"alerthub/internal/domain/entity"
	"alerthub/internal/repository"
)

const statusColumns = `
id, alert_id, user_id, is_read, is_snoozed, snoozed_until,
last_reminded_at, created_at, updated_at`

type AlertStatusRepo struct{ db executor }

func NewAlertStatusRepo(db executor) repository.AlertStatusRepository {
	return &AlertStatusRepo{db: db}
}

func scanStatus(s interface{ Scan(...any) error }) (*entity.AlertStatus, error) {
	var st entity.AlertStatus
	err := s.Scan(
		&st.ID, &st.AlertID, &st.UserID, &st.Read, &st.Snoozed, &st.SnoozedUntil,
		&st.LastRemindedAt, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GetOrCreate relies on the (alert_id, user_id) unique constraint: the
// insert is a no-op when the row exists, and the follow-up select observes
// whichever row won, so concurrent callers converge.
func (repo *AlertStatusRepo) GetOrCreate(ctx context.Context, alertID, userID int64) (*entity.AlertStatus, error) {
	const insert = `
INSERT INTO alert_statuses (alert_id, user_id)
VALUES ($1, $2)
ON CONFLICT (alert_id, user_id) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, insert, alertID, userID); err != nil {
		return nil, fmt.Errorf("GetOrCreate: insert: %w", err)
	}

	query := `
SELECT` + statusColumns + `
FROM alert_statuses
WHERE alert_id = $1 AND user_id = $2
LIMIT 1`
	status, err := scanStatus(repo.db.QueryRowContext(ctx, query, alertID, userID))
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: select: %w", err)
	}
	return status, nil
}

func (repo *AlertStatusRepo) ListByAlert(ctx context.Context, alertID int64) ([]*entity.AlertStatus, error) {
	query := `
SELECT` + statusColumns + `
FROM alert_statuses
WHERE alert_id = $1
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, alertID)
	if err != nil {
		return nil, fmt.Errorf("ListByAlert: %w", err)
	}
	defer func() { _ = rows.Close() }()

	statuses := make([]*entity.AlertStatus, 0, 50)
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByAlert: %w", err)
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

func (repo *AlertStatusRepo) BulkCreate(ctx context.Context, alertID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	const query = `
INSERT INTO alert_statuses (alert_id, user_id)
SELECT $1, unnest($2::bigint[])
ON CONFLICT (alert_id, user_id) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, alertID, userIDs); err != nil {
		return fmt.Errorf("BulkCreate: %w", err)
	}
	return nil
}

func (repo *AlertStatusRepo) Update(ctx context.Context, status *entity.AlertStatus) error {
	const query = `
UPDATE alert_statuses SET
       is_read          = $1,
       is_snoozed       = $2,
       snoozed_until    = $3,
       last_reminded_at = $4,
       updated_at       = NOW()
WHERE id = $5`
	res, err := repo.db.ExecContext(ctx, query,
		status.Read, status.Snoozed, status.SnoozedUntil, status.LastRemindedAt, status.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *AlertStatusRepo) TouchReminded(ctx context.Context, id int64, t time.Time) error {
	const query = `UPDATE alert_statuses SET last_reminded_at = $1, updated_at = NOW() WHERE id = $2`
	_, err := repo.db.ExecContext(ctx, query, t, id)
	if err != nil {
		return fmt.Errorf("TouchReminded: %w", err)
	}
	return nil
}

func (repo *AlertStatusRepo) ExpireSnoozes(ctx context.Context, now time.Time) (int64, error) {
	const query = `
UPDATE alert_statuses SET
       is_snoozed    = FALSE,
       snoozed_until = NULL,
       updated_at    = NOW()
WHERE is_snoozed = TRUE
  AND snoozed_until < $1`
	res, err := repo.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("ExpireSnoozes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ExpireSnoozes: %w", err)
	}
	return n, nil
}

func (repo *AlertStatusRepo) ListExpiredSnoozes(ctx context.Context, now time.Time, limit int) ([]*entity.AlertStatus, error) {
	query := `
SELECT` + statusColumns + `
FROM alert_statuses
WHERE is_snoozed = TRUE
  AND snoozed_until < $1
ORDER BY snoozed_until ASC
LIMIT $2`
	rows, err := repo.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("ListExpiredSnoozes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	statuses := make([]*entity.AlertStatus, 0, limit)
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("ListExpiredSnoozes: %w", err)
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

func (repo *AlertStatusRepo) SnoozeStats(ctx context.Context, now time.Time) (*repository.SnoozeStats, error) {
	const query = `
SELECT COUNT(*) FILTER (WHERE is_snoozed),
       COUNT(*) FILTER (WHERE is_snoozed AND snoozed_until > $1),
       COUNT(*) FILTER (WHERE is_snoozed AND snoozed_until < $1)
FROM alert_statuses`
	var stats repository.SnoozeStats
	err := repo.db.QueryRowContext(ctx, query, now).Scan(
		&stats.TotalSnoozed, &stats.ActiveSnoozed, &stats.ExpiredCount,
	)
	if err != nil {
		return nil, fmt.Errorf("SnoozeStats: %w", err)
	}
	return &stats, nil
}
