package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/events"
)

// StaffRoom receives every order event.
const StaffRoom = "staff"

// OrderRoom is the room a guest joins to follow a single order.
func OrderRoom(id uuid.UUID) string {
	return "order:" + id.String()
}

// roomEvent is an internal struct for routing events to a room
type roomEvent struct {
	room    string
	message []byte
}

// Hub maintains the set of active clients and broadcasts order events to them.
// It implements events.Publisher.
type Hub struct {
	// Registered clients by room
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan roomEvent
	done       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is done.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[ev.room] {
				select {
				case client.send <- ev.message:
				default:
					// Slow consumer: disconnect rather than block the hub.
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes client and closes its send channel. Caller holds mu.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.room]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.room)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.drop(client)
		}
	}
}

// Publish sends e to staff screens and to guests following the order.
func (h *Hub) Publish(ctx context.Context, e events.OrderEvent) error {
	message, err := json.Marshal(e)
	if err != nil {
		return err
	}
	for _, room := range []string{StaffRoom, OrderRoom(e.OrderID)} {
		select {
		case h.broadcast <- roomEvent{room: room, message: message}:
		case <-h.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// clientCount is used by tests.
func (h *Hub) clientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
