package dispatch

import (
	"fmt"
	"sync"
)

// Registry maps channel kind identifiers to delivery channels. New kinds can
// be registered at runtime; registration order is preserved for Kinds().
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
	order    []string
}

// NewRegistry creates an empty registry. Callers register the channels they
// have configuration for; see cmd/worker for the standard wiring.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// Register adds or replaces the channel for a kind.
func (r *Registry) Register(kind string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.channels[kind]; !exists {
		r.order = append(r.order, kind)
	}
	r.channels[kind] = ch
}

// Create returns the channel registered for kind, or ErrUnsupportedKind.
func (r *Registry) Create(kind string) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
	return ch, nil
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, len(r.order))
	copy(kinds, r.order)
	return kinds
}
