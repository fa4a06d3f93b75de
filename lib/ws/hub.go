package ws

import (
	"sync"

	"go.uber.org/zap"
)

// Hub fans notification frames out to every connected editor surface. A
// subscriber that cannot keep up is dropped instead of stalling the edit
// path behind its full send queue.
type Hub struct {
	logger *zap.SugaredLogger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	// Outbound frames for all subscribers.
	Broadcast chan []byte

	// Register requests from the Clients.
	Register chan *Client

	// Unregister requests from Clients.
	Unregister chan *Client
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]struct{}),
		Broadcast:  make(chan []byte),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// SubscriberCount reports how many clients currently receive broadcasts.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			if client == nil {
				continue
			}
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
		case client := <-h.Unregister:
			if client == nil {
				continue
			}
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					h.logger.Warn("dropping slow websocket subscriber: send queue full")
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes a client and closes its send queue. Callers hold mu.
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}
