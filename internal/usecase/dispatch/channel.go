// Package dispatch implements the notification delivery pipeline: delivery
// channels for each transport kind, a registry that maps kind identifiers to
// channels, and a dispatcher that applies the retry policy and notifies
// delivery observers.
package dispatch

import (
	"context"
	"time"

	"alerthub/internal/domain/entity"
)

// Result describes the outcome of one delivery attempt (or attempt-set, when
// returned by the dispatcher). Expected failure modes are carried in the
// result rather than surfaced as errors.
type Result struct {
	Status    string    // pending|sent|delivered|failed
	Channel   string    // channel kind that handled the send
	Recipient string
	Timestamp time.Time
	MessageID string // transport message identifier, empty on failure
	Error     string // descriptive error text, empty on success
	Attempts  int    // attempts consumed; set by the dispatcher
}

// Succeeded reports whether the result counts as a successful delivery.
func (r Result) Succeeded() bool {
	return r.Status == entity.DeliverySent || r.Status == entity.DeliveryDelivered
}

// failure builds a failed Result for a channel.
func failure(channel, recipient, errText string) Result {
	return Result{
		Status:    entity.DeliveryFailed,
		Channel:   channel,
		Recipient: recipient,
		Timestamp: time.Now(),
		Error:     errText,
	}
}

// Channel performs a single delivery attempt over one transport kind.
//
// Send never returns an error for expected failure modes (invalid recipient,
// transport failure, missing configuration); it returns a Result with status
// failed and a descriptive Error instead. The dispatcher decides whether to
// retry.
//
// Implementations must be safe for concurrent use: the scheduler worker and
// manual HTTP-triggered sends may dispatch through the same channel at once.
type Channel interface {
	// Kind returns the channel kind identifier (email, sms, in_app).
	Kind() string

	// Validate reports whether the recipient address is well-formed for
	// this channel.
	Validate(recipient string) bool

	// Send performs one delivery attempt.
	Send(ctx context.Context, recipient, title, message string, metadata map[string]any) Result
}
