package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// maxAttempts is the fixed per-send retry budget. The budget applies
// uniformly to validation, configuration, and transport failures; only an
// unsupported channel kind short-circuits, since no retry can register a
// missing channel.
const maxAttempts = 3

// Observer receives delivery events. Observers are notified once per
// logical send, on the final outcome, not once per attempt.
type Observer interface {
	OnSent(result Result)
	OnFailed(result Result)
}

// Request describes one logical send for SendBulk.
type Request struct {
	Kind      string
	Recipient string
	Title     string
	Message   string
	Metadata  map[string]any
	NoRetry   bool // disable the retry budget for this item
}

// Dispatcher orchestrates a logical send: channel selection through the
// registry, the bounded retry loop, and observer notification. It never
// propagates raw failures to the caller; every outcome is a Result.
type Dispatcher struct {
	registry  *Registry
	observers []Observer
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry. Observers
// must all be attached before the first Send; every observer receives every
// event.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// AddObserver attaches an observer for delivery events.
func (d *Dispatcher) AddObserver(o Observer) {
	d.observers = append(d.observers, o)
}

// Registry returns the channel registry backing this dispatcher.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Send performs one logical send with up to maxAttempts attempts when retry
// is enabled. An attempt counts as successful when its status is sent or
// delivered; the first success returns immediately and fires the sent hook.
// Exhausting the budget fires the failed hook and returns the last failure.
func (d *Dispatcher) Send(ctx context.Context, kind, recipient, title, message string, metadata map[string]any, retry bool) (result Result) {
	start := time.Now()
	defer func() {
		// A panicking channel must not take down a batch job or the
		// scheduler loop; convert it into a failed result.
		if r := recover(); r != nil {
			d.logger.Error("panic during notification send",
				slog.String("kind", kind),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			result = failure(kind, recipient, fmt.Sprintf("panic: %v", r))
			d.notifyFailed(result)
		}
	}()

	channel, err := d.registry.Create(kind)
	if err != nil {
		// Configuration error: retrying a factory miss cannot succeed.
		result = failure(kind, recipient, err.Error())
		result.Attempts = 1
		d.notifyFailed(result)
		recordFailure(kind, time.Since(start))
		return result
	}

	attempts := 1
	if retry {
		attempts = maxAttempts
	}

	recordDispatch(kind)
	var last Result
	for attempt := 1; attempt <= attempts; attempt++ {
		last = channel.Send(ctx, recipient, title, message, metadata)
		last.Attempts = attempt

		if last.Succeeded() {
			d.notifySent(last)
			recordSuccess(kind, time.Since(start))
			return last
		}

		if attempt < attempts {
			d.logger.Warn("notification attempt failed, retrying",
				slog.String("kind", kind),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", attempts),
				slog.String("error", last.Error))
		}
	}

	d.notifyFailed(last)
	recordFailure(kind, time.Since(start))
	return last
}

// SendBulk applies Send independently per request; one item's failure never
// aborts the rest of the batch.
func (d *Dispatcher) SendBulk(ctx context.Context, requests []Request) []Result {
	results := make([]Result, 0, len(requests))
	for _, req := range requests {
		results = append(results, d.Send(ctx, req.Kind, req.Recipient, req.Title, req.Message, req.Metadata, !req.NoRetry))
	}
	return results
}

func (d *Dispatcher) notifySent(result Result) {
	for _, o := range d.observers {
		o.OnSent(result)
	}
	d.logger.Info("notification sent",
		slog.String("channel", result.Channel),
		slog.String("status", result.Status),
		slog.Int("attempts", result.Attempts))
}

func (d *Dispatcher) notifyFailed(result Result) {
	for _, o := range d.observers {
		o.OnFailed(result)
	}
	d.logger.Warn("notification failed",
		slog.String("channel", result.Channel),
		slog.String("error", result.Error),
		slog.Int("attempts", result.Attempts))
}
