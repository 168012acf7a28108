package repository

import (
	"context"

	"alerthub/internal/domain/entity"
)

type UserRepository interface {
	Get(ctx context.Context, id int64) (*entity.User, error)
	// ListRecipients resolves the alert's target audience per its
	// visibility scope: organization = all active users, teams = active
	// members of the alert's recipient teams, users = directly referenced
	// active users.
	ListRecipients(ctx context.Context, alert *entity.Alert) ([]*entity.User, error)
}
