package broadcast

import "sync"

// EventRosterChanged is the only event the channel carries. Receivers treat
// it purely as a signal to re-fetch the roster through the authenticated
// list endpoint; it has no payload.
const EventRosterChanged = "roster_changed"

// Hub fans one event out to every subscriber in this process.
// Delivery is fire-and-forget: a subscriber that cannot keep up has the
// signal dropped, which only costs it a stale view until the next signal
// or a manual refresh.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan string]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[chan string]struct{}),
	}
}

// Subscribe registers a new receiver and returns its channel plus an
// unsubscribe func. The channel is closed on unsubscribe or hub close.
func (h *Hub) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 8)

	h.mu.Lock()

	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}

	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once

	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()

			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}

			h.mu.Unlock()
		})
	}

	return ch, unsubscribe
}

// Publish delivers the event to all current subscribers without blocking.
func (h *Hub) Publish(event string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for ch := range h.subs {
		select {
		case ch <- event:
		default:
			// slow consumer, drop the signal
		}
	}
}

// Subscribers returns the current subscriber count (for metrics/health).
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}

// Close terminates every subscriber channel. Used on shutdown so open
// event streams end instead of hanging.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true

	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
