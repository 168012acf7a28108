package entity

import "time"

// Delivery statuses. Pending is the initial state before the first attempt
// completes; Sent means handed to the transport; Delivered means confirmed
// at the recipient (in-app writes are delivered immediately).
const (
	DeliveryPending   = "pending"
	DeliverySent      = "sent"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// Delivery is the audit record of one delivery attempt-set to one recipient
// for one alert. It is updated in place on retry (attempt count increments,
// status and error are overwritten) rather than appended, and is
// non-authoritative for alert state.
type Delivery struct {
	ID            int64
	AlertID       int64
	UserID        int64
	Channel       string
	Recipient     string
	Status        string
	MessageID     string
	ErrorMessage  string
	AttemptCount  int
	LastAttemptAt *time.Time
	DeliveredAt   *time.Time
	Metadata      map[string]any
	CreatedAt     time.Time
}

// Succeeded reports whether the delivery reached the transport.
func (d *Delivery) Succeeded() bool {
	return d.Status == DeliverySent || d.Status == DeliveryDelivered
}
