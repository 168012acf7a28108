// Package alert exposes the per-alert control endpoints: manual dispatch,
// retry of failed deliveries, and the delivery log.
package alert

import (
	"time"

	"alerthub/internal/domain/entity"
)

// DeliveryDTO is the wire representation of one delivery log row.
type DeliveryDTO struct {
	ID            int64      `json:"id"`
	AlertID       int64      `json:"alert_id"`
	UserID        int64      `json:"user_id"`
	Channel       string     `json:"channel"`
	Recipient     string     `json:"recipient"`
	Status        string     `json:"status"`
	MessageID     string     `json:"message_id,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	AttemptCount  int        `json:"attempt_count"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
}

func toDeliveryDTO(d *entity.Delivery) DeliveryDTO {
	return DeliveryDTO{
		ID:            d.ID,
		AlertID:       d.AlertID,
		UserID:        d.UserID,
		Channel:       d.Channel,
		Recipient:     d.Recipient,
		Status:        d.Status,
		MessageID:     d.MessageID,
		ErrorMessage:  d.ErrorMessage,
		AttemptCount:  d.AttemptCount,
		LastAttemptAt: d.LastAttemptAt,
		DeliveredAt:   d.DeliveredAt,
	}
}

// DeliveryListResponse wraps the delivery log list.
type DeliveryListResponse struct {
	AlertID    int64         `json:"alert_id"`
	Deliveries []DeliveryDTO `json:"deliveries"`
}
