package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TimelordUK/novelreader/internal/protocol"
)

// DefaultDeliveryTimeout bounds how long one listener may hold up a broadcast
const DefaultDeliveryTimeout = 2 * time.Second

// Listener receives broadcasts. Delivery errors are never reported back to
// whoever triggered the broadcast.
type Listener interface {
	Deliver(ctx context.Context, n protocol.Notification) error
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(ctx context.Context, n protocol.Notification) error

func (f ListenerFunc) Deliver(ctx context.Context, n protocol.Notification) error {
	return f(ctx, n)
}

// Hub tracks the currently connected rendering contexts
type Hub struct {
	mu        sync.RWMutex
	listeners map[string]Listener
	timeout   time.Duration
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		listeners: make(map[string]Listener),
		timeout:   DefaultDeliveryTimeout,
	}
}

// SetTimeout changes the per-listener delivery timeout
func (h *Hub) SetTimeout(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timeout = d
}

// Add registers a listener and returns its id
func (h *Hub) Add(l Listener) string {
	id := uuid.NewString()
	h.mu.Lock()
	h.listeners[id] = l
	h.mu.Unlock()
	log.Debugf("listener %s added", id)
	return id
}

// Remove unregisters a listener. Unknown ids are ignored.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	delete(h.listeners, id)
	h.mu.Unlock()
	log.Debugf("listener %s removed", id)
}

// Len returns the number of registered listeners
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Broadcast delivers n to every listener registered at the time of the call.
// Each delivery is independent; a failed or slow listener does not affect
// the others. Returns once every delivery finished or timed out.
func (h *Hub) Broadcast(ctx context.Context, n protocol.Notification) {
	h.mu.RLock()
	targets := make(map[string]Listener, len(h.listeners))
	for id, l := range h.listeners {
		targets[id] = l
	}
	timeout := h.timeout
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	// the caller's request may finish before delivery does
	base := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for id, l := range targets {
		wg.Add(1)
		go func(id string, l Listener) {
			defer wg.Done()
			dctx, cancel := context.WithTimeout(base, timeout)
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- l.Deliver(dctx, n) }()

			select {
			case err := <-done:
				if err != nil {
					log.Debugf("broadcast %s to %s failed: %s", n.Action, id, err)
				}
			case <-dctx.Done():
				log.Debugf("broadcast %s to %s timed out", n.Action, id)
			}
		}(id, l)
	}
	wg.Wait()
}
