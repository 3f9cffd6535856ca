// Package realtime pushes complaint lifecycle events to connected dashboards
// over websockets.
package realtime

import (
	"context"
	"log/slog"

	"fixitnow-backend/app/model"
	"fixitnow-backend/queue"
)

// Hub owns the set of connected clients. All membership changes and
// broadcasts happen on the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan queue.ComplaintEvent
	done       chan struct{}
}

// NewHub returns a hub that does nothing until Run is started.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan queue.ComplaintEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
			}

		case ev := <-h.broadcast:
			for c := range h.clients {
				if !CanSee(c.Role, c.UserID, ev) {
					continue
				}
				select {
				case c.send <- ev:
				default:
					slog.Warn("realtime: dropping slow client", "user_id", c.UserID)
					h.drop(c)
				}
			}
		}
	}
}

// Publish queues ev for broadcast. It implements queue.Publisher.
func (h *Hub) Publish(ctx context.Context, ev queue.ComplaintEvent) error {
	select {
	case h.broadcast <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return nil
	}
}

// CanSee applies the complaint visibility rule to the live feed: students
// only hear about their own complaints.
func CanSee(role model.Role, userID string, ev queue.ComplaintEvent) bool {
	if role == model.RoleStudent {
		return ev.ReportedBy == userID
	}
	return true
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
}
