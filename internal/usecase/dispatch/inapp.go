package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"alerthub/internal/domain/entity"
)

// InboxStore persists in-app notifications for display inside the product.
type InboxStore interface {
	SaveNotification(ctx context.Context, userID int64, title, message string, metadata map[string]any) error
}

// InAppChannel delivers alerts by writing an inbox record for the recipient
// user. There is no external transport, so a successful write is reported as
// delivered rather than sent.
type InAppChannel struct {
	store  InboxStore // optional; nil logs the notification only
	logger *slog.Logger
}

// NewInAppChannel creates an in-app channel backed by store.
func NewInAppChannel(store InboxStore, logger *slog.Logger) *InAppChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return &InAppChannel{store: store, logger: logger}
}

// Kind implements Channel.
func (c *InAppChannel) Kind() string { return entity.KindInApp }

// Validate checks that the recipient is a well-formed integer user id.
func (c *InAppChannel) Validate(recipient string) bool {
	id, err := strconv.ParseInt(recipient, 10, 64)
	return err == nil && id > 0
}

// Send implements Channel.
func (c *InAppChannel) Send(ctx context.Context, recipient, title, message string, metadata map[string]any) Result {
	if !c.Validate(recipient) {
		return failure(c.Kind(), recipient, fmt.Sprintf("%v: invalid user id", ErrInvalidRecipient))
	}

	userID, _ := strconv.ParseInt(recipient, 10, 64)
	if c.store != nil {
		if err := c.store.SaveNotification(ctx, userID, title, message, metadata); err != nil {
			return failure(c.Kind(), recipient, fmt.Sprintf("save notification: %v", err))
		}
	} else {
		c.logger.Info("in-app notification created",
			slog.Int64("user_id", userID),
			slog.String("title", title))
	}

	return Result{
		Status:    entity.DeliveryDelivered,
		Channel:   c.Kind(),
		Recipient: recipient,
		Timestamp: time.Now(),
		MessageID: "in_app_" + recipient + "_" + strconv.FormatInt(time.Now().UnixNano(), 10),
	}
}
