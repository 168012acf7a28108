package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"alerthub/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockChannel is a scriptable channel: it fails the first failuresBefore
// attempts and succeeds afterwards. failuresBefore < 0 fails forever.
type mockChannel struct {
	kind           string
	failuresBefore int
	panicMessage   string

	mu    sync.Mutex
	calls int
}

func (m *mockChannel) Kind() string { return m.kind }

func (m *mockChannel) Validate(recipient string) bool { return recipient != "" }

func (m *mockChannel) Send(ctx context.Context, recipient, title, message string, metadata map[string]any) Result {
	m.mu.Lock()
	m.calls++
	calls := m.calls
	m.mu.Unlock()

	if m.panicMessage != "" {
		panic(m.panicMessage)
	}
	if m.failuresBefore < 0 || calls <= m.failuresBefore {
		return failure(m.kind, recipient, "transport unavailable")
	}
	return Result{
		Status:    entity.DeliverySent,
		Channel:   m.kind,
		Recipient: recipient,
		Timestamp: time.Now(),
		MessageID: "mock_1",
	}
}

func (m *mockChannel) sendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestDispatcher(channels ...Channel) (*Dispatcher, *Tracker) {
	registry := NewRegistry()
	for _, ch := range channels {
		registry.Register(ch.Kind(), ch)
	}
	tracker := NewTracker()
	d := NewDispatcher(registry, nil)
	d.AddObserver(tracker)
	return d, tracker
}

// TestSend_SuccessFirstAttempt verifies a clean send fires the sent hook once
func TestSend_SuccessFirstAttempt(t *testing.T) {
	// Arrange
	ch := &mockChannel{kind: entity.KindEmail}
	d, tracker := newTestDispatcher(ch)

	// Act
	result := d.Send(context.Background(), entity.KindEmail, "ops@example.com", "Disk full", "Volume at 95%", nil, true)

	// Assert
	assert.True(t, result.Succeeded())
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, ch.sendCount())

	stats := tracker.Stats()
	assert.Equal(t, int64(1), stats.Sent)
	assert.Equal(t, int64(0), stats.Failed)
}

// TestSend_RetriesThenSucceeds verifies transient failures are retried and
// only the final success is observed
func TestSend_RetriesThenSucceeds(t *testing.T) {
	// Arrange
	ch := &mockChannel{kind: entity.KindEmail, failuresBefore: 2}
	d, tracker := newTestDispatcher(ch)

	// Act
	result := d.Send(context.Background(), entity.KindEmail, "ops@example.com", "Disk full", "Volume at 95%", nil, true)

	// Assert
	assert.Equal(t, entity.DeliverySent, result.Status)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 3, ch.sendCount())

	stats := tracker.Stats()
	assert.Equal(t, int64(1), stats.Sent, "success after retries must record exactly one sent event")
	assert.Equal(t, int64(0), stats.Failed, "intermediate failed attempts must not be observed")
}

// TestSend_ExhaustsRetryBudget verifies a persistent failure stops after three
// attempts and fires the failed hook once
func TestSend_ExhaustsRetryBudget(t *testing.T) {
	// Arrange
	ch := &mockChannel{kind: entity.KindSMS, failuresBefore: -1}
	d, tracker := newTestDispatcher(ch)

	// Act
	result := d.Send(context.Background(), entity.KindSMS, "+15551234567", "Disk full", "Volume at 95%", nil, true)

	// Assert
	assert.Equal(t, entity.DeliveryFailed, result.Status)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 3, ch.sendCount())
	assert.Equal(t, "transport unavailable", result.Error)

	stats := tracker.Stats()
	assert.Equal(t, int64(0), stats.Sent)
	assert.Equal(t, int64(1), stats.Failed)
}

// TestSend_RetryDisabled verifies retry=false makes exactly one attempt
func TestSend_RetryDisabled(t *testing.T) {
	// Arrange
	ch := &mockChannel{kind: entity.KindEmail, failuresBefore: -1}
	d, tracker := newTestDispatcher(ch)

	// Act
	result := d.Send(context.Background(), entity.KindEmail, "ops@example.com", "Disk full", "Volume at 95%", nil, false)

	// Assert
	assert.Equal(t, entity.DeliveryFailed, result.Status)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, ch.sendCount())
	assert.Equal(t, int64(1), tracker.Stats().Failed)
}

// TestSend_UnsupportedKind verifies a missing channel kind fails without any
// delivery attempt or retry
func TestSend_UnsupportedKind(t *testing.T) {
	// Arrange
	ch := &mockChannel{kind: entity.KindEmail}
	d, tracker := newTestDispatcher(ch)

	// Act
	result := d.Send(context.Background(), "carrier_pigeon", "ops@example.com", "Disk full", "Volume at 95%", nil, true)

	// Assert
	assert.Equal(t, entity.DeliveryFailed, result.Status)
	assert.Equal(t, 1, result.Attempts)
	assert.Contains(t, result.Error, "unsupported channel kind")
	assert.Equal(t, 0, ch.sendCount(), "no channel should be invoked for an unregistered kind")
	assert.Equal(t, int64(1), tracker.Stats().Failed)
}

// TestSend_InvalidRecipientConsumesBudget verifies validation failures use
// the same retry budget as transport failures
func TestSend_InvalidRecipientConsumesBudget(t *testing.T) {
	// Arrange
	registry := NewRegistry()
	registry.Register(entity.KindEmail, NewEmailChannel(EmailConfig{Host: "localhost", Port: 25, From: "alerts@example.com"}))
	tracker := NewTracker()
	d := NewDispatcher(registry, nil)
	d.AddObserver(tracker)

	// Act
	result := d.Send(context.Background(), entity.KindEmail, "not-an-address", "Disk full", "Volume at 95%", nil, true)

	// Assert
	assert.Equal(t, entity.DeliveryFailed, result.Status)
	assert.Equal(t, 3, result.Attempts)
	assert.Contains(t, result.Error, "invalid recipient")
	assert.Equal(t, int64(1), tracker.Stats().Failed)
}

// TestSend_PanicRecovered verifies a panicking channel produces a failed
// result instead of crashing the caller
func TestSend_PanicRecovered(t *testing.T) {
	// Arrange
	ch := &mockChannel{kind: entity.KindEmail, panicMessage: "nil template"}
	d, tracker := newTestDispatcher(ch)

	// Act
	result := d.Send(context.Background(), entity.KindEmail, "ops@example.com", "Disk full", "Volume at 95%", nil, true)

	// Assert
	assert.Equal(t, entity.DeliveryFailed, result.Status)
	assert.Contains(t, result.Error, "panic")
	assert.Equal(t, int64(1), tracker.Stats().Failed)
}

// TestSendBulk_PartialFailure verifies items are isolated from each other
func TestSendBulk_PartialFailure(t *testing.T) {
	// Arrange
	good := &mockChannel{kind: entity.KindEmail}
	bad := &mockChannel{kind: entity.KindSMS, failuresBefore: -1}
	d, tracker := newTestDispatcher(good, bad)

	requests := []Request{
		{Kind: entity.KindEmail, Recipient: "a@example.com", Title: "t", Message: "m"},
		{Kind: entity.KindSMS, Recipient: "+15551234567", Title: "t", Message: "m"},
		{Kind: entity.KindEmail, Recipient: "b@example.com", Title: "t", Message: "m"},
	}

	// Act
	results := d.SendBulk(context.Background(), requests)

	// Assert
	require.Len(t, results, 3)
	assert.True(t, results[0].Succeeded())
	assert.False(t, results[1].Succeeded())
	assert.True(t, results[2].Succeeded())

	stats := tracker.Stats()
	assert.Equal(t, int64(2), stats.Sent)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(2), stats.ByChannel[entity.KindEmail].Sent)
	assert.Equal(t, int64(1), stats.ByChannel[entity.KindSMS].Failed)
}

// TestTracker_SuccessRate verifies snapshot math and reset
func TestTracker_SuccessRate(t *testing.T) {
	tracker := NewTracker()
	assert.Equal(t, float64(0), tracker.Stats().SuccessRate())

	for i := 0; i < 3; i++ {
		tracker.OnSent(Result{Channel: entity.KindEmail})
	}
	tracker.OnFailed(Result{Channel: entity.KindSMS})

	stats := tracker.Stats()
	assert.Equal(t, int64(4), stats.Total)
	assert.InDelta(t, 0.75, stats.SuccessRate(), 1e-9)

	tracker.Reset()
	assert.Equal(t, int64(0), tracker.Stats().Total)
}
