// Package realtime provides a small in-process publish/subscribe hub used to
// fan out session changes to listeners such as websocket connections and the
// terminal UI.
//
// Delivery is best effort and never blocks the publisher. Every listener has
// a buffered channel; when it is full the oldest pending event is discarded to
// make room, so a slow listener always ends up holding the most recent event.
// Events are full snapshots, which makes skipping intermediate ones harmless.
package realtime

import (
	"sync"
)

// Hub fans out values of type T to registered listeners. It is safe for
// concurrent use.
type Hub[T any] struct {
	mu        sync.Mutex
	listeners map[uint64]chan T
	nextID    uint64
	bufSize   int
	closed    bool
}

// NewHub constructs a hub with the given per-listener buffer size. A size
// <= 0 uses 16.
func NewHub[T any](bufSize int) *Hub[T] {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &Hub[T]{
		listeners: make(map[uint64]chan T),
		bufSize:   bufSize,
	}
}

// Register adds a listener and returns its id and receive channel. Callers
// must Unregister the id when done. Registering on a closed hub returns an
// already closed channel.
func (h *Hub[T]) Register() (uint64, <-chan T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan T, h.bufSize)
	if h.closed {
		close(ch)
		return id, ch
	}
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener and closes its channel. Unknown ids are
// ignored.
func (h *Hub[T]) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers event to every listener without blocking.
func (h *Hub[T]) Broadcast(event T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.listeners {
		select {
		case ch <- event:
			continue
		default:
		}
		// Full: drop the oldest pending event and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}

// Close unregisters every listener. Later registrations receive a closed
// channel.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.listeners {
		delete(h.listeners, id)
		close(ch)
	}
}
