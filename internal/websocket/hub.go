// Package websocket pushes parte lifecycle events to connected console clients.
package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/xelth-com/sisifo/internal/events"
)

// Hub maintains the set of active clients and broadcasts events to them.
// It implements events.Publisher.
type Hub struct {
	// Registered clients
	clients map[*Client]struct{}

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

// Run starts the hub's main loop; it returns when ctx is cancelled and
// disconnects every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			log.Printf("🖥️ Console connected: %s", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("📴 Console disconnected: %s", client.UserID)
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// subscribe hands c to Run; false once the hub has stopped
func (h *Hub) subscribe(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// unsubscribe hands c back to Run. After Run returns there is nothing to do:
// Run already closed every queue on its way out.
func (h *Hub) unsubscribe(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends ev to every connected client. Clients whose buffer is full
// miss the event.
func (h *Hub) Publish(ctx context.Context, ev events.Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			log.Printf("⚠️ Console %s is not keeping up, dropped %s", client.UserID, ev.Type)
		}
	}
	return nil
}

// Close is a no-op; connections end when Run's context is cancelled
func (h *Hub) Close() error { return nil }
