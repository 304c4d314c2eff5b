package ws

import (
	"encoding/json"
	"time"

	"printshop-api/internal/metrics"
	"printshop-api/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Conn is the part of *websocket.Conn the hub needs.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one connected dashboard. A client without a tenant that is not
// Unrestricted receives nothing.
type Client struct {
	Conn         Conn
	UserID       uuid.UUID
	TenantID     *uuid.UUID
	Unrestricted bool
}

func (c *Client) wants(tenantID uuid.UUID) bool {
	if c.Unrestricted {
		return true
	}
	return c.TenantID != nil && *c.TenantID == tenantID
}

// Event is a workflow change pushed to connected clients of the same tenant.
type Event struct {
	Type       string    `json:"type"`
	TenantID   uuid.UUID `json:"tenant_id"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	Status     string    `json:"status,omitempty"`
	Message    string    `json:"message,omitempty"`
	ActorID    uuid.UUID `json:"actor_id"`
	ActorName  string    `json:"actor_name,omitempty"`
	At         time.Time `json:"at"`
}

type envelope struct {
	tenantID uuid.UUID
	payload  []byte
}

type Hub struct {
	clients    map[Conn]*Client
	register   chan *Client
	unregister chan Conn
	broadcast  chan envelope
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[Conn]*Client),
		register:   make(chan *Client),
		unregister: make(chan Conn),
		broadcast:  make(chan envelope, 256),
		done:       make(chan struct{}),
	}
}

// Run owns the client set. It returns after Stop.
func (h *Hub) Run() {
	log := logger.Get()
	for {
		select {
		case client := <-h.register:
			h.clients[client.Conn] = client
			metrics.WSClientConnected()
			log.Debug().Str("user_id", client.UserID.String()).Msg("ws client connected")

		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				_ = conn.Close()
				metrics.WSClientDisconnected()
			}

		case msg := <-h.broadcast:
			for conn, client := range h.clients {
				if !client.wants(msg.tenantID) {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
					_ = conn.Close()
					delete(h.clients, conn)
					metrics.WSClientDisconnected()
				}
			}

		case <-h.done:
			for conn := range h.clients {
				_ = conn.Close()
				delete(h.clients, conn)
			}
			return
		}
	}
}

// Publish queues an event without blocking. When the buffer is full the event
// is dropped and counted.
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log := logger.Get()
		log.Error().Err(err).Msg("ws: marshal event")
		return
	}
	select {
	case h.broadcast <- envelope{tenantID: event.TenantID, payload: payload}:
	default:
		metrics.WSEventDropped()
		log := logger.Get()
		log.Warn().Str("type", event.Type).Msg("ws: buffer full, event dropped")
	}
}

// Register adds a client. After Stop the connection is closed instead.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		_ = c.Conn.Close()
	}
}

// Unregister drops and closes a connection. It returns immediately once the hub
// has stopped.
func (h *Hub) Unregister(conn Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

func (h *Hub) Stop() { close(h.done) }
