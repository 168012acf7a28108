package dispatch

import "sync"

// ChannelStats holds per-channel delivery counters.
type ChannelStats struct {
	Sent   int64 `json:"sent"`
	Failed int64 `json:"failed"`
}

// Stats is a point-in-time snapshot of tracker counters.
type Stats struct {
	Sent      int64
	Failed    int64
	Total     int64
	ByChannel map[string]ChannelStats
}

// SuccessRate returns the fraction of sends that succeeded, 0 when nothing
// has been recorded yet.
func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Sent) / float64(s.Total)
}

// Tracker is an Observer that accumulates in-memory delivery counters for
// the control API and job reports. Safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	sent      int64
	failed    int64
	byChannel map[string]ChannelStats
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{byChannel: make(map[string]ChannelStats)}
}

// OnSent records a successful delivery.
func (t *Tracker) OnSent(result Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent++
	cs := t.byChannel[result.Channel]
	cs.Sent++
	t.byChannel[result.Channel] = cs
}

// OnFailed records a failed delivery.
func (t *Tracker) OnFailed(result Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed++
	cs := t.byChannel[result.Channel]
	cs.Failed++
	t.byChannel[result.Channel] = cs
}

// Stats returns a snapshot of the counters. The snapshot owns its map; the
// caller may read it without further locking.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	byChannel := make(map[string]ChannelStats, len(t.byChannel))
	for kind, cs := range t.byChannel {
		byChannel[kind] = cs
	}
	return Stats{
		Sent:      t.sent,
		Failed:    t.failed,
		Total:     t.sent + t.failed,
		ByChannel: byChannel,
	}
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = 0
	t.failed = 0
	t.byChannel = make(map[string]ChannelStats)
}
