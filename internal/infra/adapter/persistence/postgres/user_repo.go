package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"alerthub/internal/domain/entity"
	"alerthub/internal/repository"
)

const userColumns = `
id, email, first_name, last_name, role, team_id, phone_number, is_active, created_at`

type UserRepo struct{ db executor }

func NewUserRepo(db executor) repository.UserRepository {
	return &UserRepo{db: db}
}

func scanUser(s interface{ Scan(...any) error }) (*entity.User, error) {
	var u entity.User
	var phone sql.NullString
	err := s.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role,
		&u.TeamID, &phone, &u.Active, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.PhoneNumber = phone.String
	return &u, nil
}

func (repo *UserRepo) Get(ctx context.Context, id int64) (*entity.User, error) {
	query := `
SELECT` + userColumns + `
FROM users
WHERE id = $1
LIMIT 1`
	user, err := scanUser(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return user, nil
}

func (repo *UserRepo) ListRecipients(ctx context.Context, alert *entity.Alert) ([]*entity.User, error) {
	var query string
	switch alert.Visibility {
	case entity.VisibilityOrganization:
		query = `
SELECT` + userColumns + `
FROM users
WHERE is_active = TRUE
ORDER BY id ASC`
		return repo.queryUsers(ctx, "ListRecipients", query)

	case entity.VisibilityTeams:
		query = `
SELECT` + userColumns + `
FROM users
WHERE is_active = TRUE
  AND team_id IN (
      SELECT team_id FROM alert_recipients
      WHERE alert_id = $1 AND team_id IS NOT NULL
  )
ORDER BY id ASC`
		return repo.queryUsers(ctx, "ListRecipients", query, alert.ID)

	case entity.VisibilityUsers:
		query = `
SELECT` + userColumns + `
FROM users
WHERE is_active = TRUE
  AND id IN (
      SELECT user_id FROM alert_recipients
      WHERE alert_id = $1 AND user_id IS NOT NULL
  )
ORDER BY id ASC`
		return repo.queryUsers(ctx, "ListRecipients", query, alert.ID)

	default:
		return nil, fmt.Errorf("ListRecipients: %w: visibility %q", entity.ErrInvalidInput, alert.Visibility)
	}
}

func (repo *UserRepo) queryUsers(ctx context.Context, op, query string, args ...any) ([]*entity.User, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]*entity.User, 0, 50)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
