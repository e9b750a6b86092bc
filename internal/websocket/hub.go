package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"imagestore/internal/models"

	"github.com/gorilla/websocket"
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans image events out to every open connection of the owning user.
type Hub struct {
	clients    map[string]map[*Client]bool
	mu         sync.RWMutex
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket")),
	}
}

// Run serves registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.Username]; !ok {
		h.clients[client.Username] = make(map[*Client]bool)
	}
	h.clients[client.Username][client] = true
	h.logger.Debug("client registered", slog.String("user", client.Username), slog.String("client_id", client.ID))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if userClients, ok := h.clients[client.Username]; ok {
		if _, ok := userClients[client]; ok {
			delete(userClients, client)
			close(client.send)
			if len(userClients) == 0 {
				delete(h.clients, client.Username)
			}
			h.logger.Debug("client unregistered", slog.String("user", client.Username), slog.String("client_id", client.ID))
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for user, userClients := range h.clients {
		for client := range userClients {
			close(client.send)
		}
		delete(h.clients, user)
	}
}

// ClientCount returns the number of open connections for username.
func (h *Hub) ClientCount(username string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[username])
}

// PublishEvent never blocks; a client whose buffer is full misses the event.
func (h *Hub) PublishEvent(owner string, event models.ImageEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[owner] {
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("client send buffer is full, dropping event",
				slog.String("user", owner),
				slog.String("client_id", client.ID),
				slog.String("event", event.EventType),
			)
		}
	}
}
