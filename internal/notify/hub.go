package notify

import (
	"sync"

	"cafeteria-system/internal/domain"
	"cafeteria-system/internal/metrics"
)

const subscriberBuffer = 8

// Hub distributes change events to in-process viewers (the SSE
// connections). Delivery is best-effort: a subscriber that cannot keep
// up loses events instead of blocking everyone else, and a viewer heals
// by re-fetching on its next signal.
type Hub struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]chan domain.EventKind
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int64]chan domain.EventKind)}
}

// Subscribe registers a viewer and returns its event channel plus a
// cancel that must run when the viewer disconnects. Cancel is safe to
// call twice.
func (h *Hub) Subscribe() (<-chan domain.EventKind, func()) {
	ch := make(chan domain.EventKind, subscriberBuffer)
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = ch
	h.mu.Unlock()
	metrics.EventSubscribers.Inc()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
			metrics.EventSubscribers.Dec()
		}
	}
	return ch, cancel
}

// Publish hands kind to every subscriber without blocking.
func (h *Hub) Publish(kind domain.EventKind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- kind:
		default:
			metrics.EventsDropped.WithLabelValues(string(kind)).Inc()
		}
	}
}

// Broadcast implements the order service bus directly on the hub, for
// setups running without a broker.
func (h *Hub) Broadcast(kind domain.EventKind) { h.Publish(kind) }
