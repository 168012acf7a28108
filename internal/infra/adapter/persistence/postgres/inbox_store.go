package postgres

import (
	"context"
	"encoding/json"
	"fmt"
)

// InboxStore persists in-app notifications to the notifications table.
type InboxStore struct{ db executor }

func NewInboxStore(db executor) *InboxStore {
	return &InboxStore{db: db}
}

func (store *InboxStore) SaveNotification(ctx context.Context, userID int64, title, message string, metadata map[string]any) error {
	payload, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("SaveNotification: %w", err)
	}

	query := `
INSERT INTO notifications (user_id, title, message, metadata, created_at)
VALUES ($1, $2, $3, $4, NOW())`
	if _, err := store.db.ExecContext(ctx, query, userID, title, message, payload); err != nil {
		return fmt.Errorf("SaveNotification: %w", err)
	}
	return nil
}
