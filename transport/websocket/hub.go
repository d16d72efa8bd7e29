package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CallMeTrinity/sae501-api-server/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// InboundMessage is the envelope clients send.
type InboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutboundMessage is the envelope the server sends.
type OutboundMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client represents one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// rooms this connection belongs to, guarded by hub.mu.
	rooms  map[string]bool
	closed bool
}

// Hub maintains the set of active clients and the per-session broadcast
// groups.
type Hub struct {
	// clients is every open connection, roomed or not.
	clients map[*Client]bool

	// rooms maps session id to the clients in its broadcast group.
	rooms map[string]map[*Client]bool
	mu    sync.RWMutex

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	service service.GameService
}

// NewHub creates a new WebSocket hub. Attach the game service before
// serving connections.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// AttachService wires the game service the hub dispatches inbound events
// to.
func (h *Hub) AttachService(svc service.GameService) {
	h.service = svc
}

// Run starts the hub's connection bookkeeping loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Client connected (total clients: %d)", h.ClientCount())

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// ServeWS handles WebSocket requests from clients.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, 256),
		rooms: make(map[string]bool),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// JoinRoom adds a client to a session's broadcast group.
func (h *Hub) JoinRoom(c *Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	if h.rooms[sessionID] == nil {
		h.rooms[sessionID] = make(map[*Client]bool)
	}
	if !h.rooms[sessionID][c] {
		h.rooms[sessionID][c] = true
		c.rooms[sessionID] = true
		log.Printf("Client joined room %s (total clients: %d)", sessionID, len(h.rooms[sessionID]))
	}
}

// BroadcastEvent sends an event to every client in a session's room.
func (h *Hub) BroadcastEvent(sessionID string, event string, data any) {
	h.broadcast(sessionID, nil, event, data)
}

// BroadcastEventExcept sends an event to every client in the room except
// one connection, typically the event's originator.
func (h *Hub) BroadcastEventExcept(sessionID string, except *Client, event string, data any) {
	h.broadcast(sessionID, except, event, data)
}

func (h *Hub) broadcast(sessionID string, except *Client, event string, data any) {
	payload, err := json.Marshal(OutboundMessage{Event: event, Data: data})
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.rooms[sessionID] {
		if client == except {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// Client's send channel is full; drop the connection
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.removeClient(client)
	}
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of clients in a session's room.
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// sendTo delivers an event to a single client.
func (h *Hub) sendTo(c *Client, event string, data any) {
	payload, err := json.Marshal(OutboundMessage{Event: event, Data: data})
	if err != nil {
		log.Printf("Failed to marshal message: %v", err)
		return
	}
	h.mu.RLock()
	if c.closed {
		h.mu.RUnlock()
		return
	}
	slow := false
	select {
	case c.send <- payload:
	default:
		slow = true
	}
	h.mu.RUnlock()
	if slow {
		h.removeClient(c)
	}
}

// removeClient detaches a client from every room and closes its send
// channel.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	delete(h.clients, c)
	for sessionID := range c.rooms {
		if clients, ok := h.rooms[sessionID]; ok {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.rooms, sessionID)
			}
			log.Printf("Client left room %s (remaining clients: %d)", sessionID, len(clients))
		}
	}
	c.rooms = make(map[string]bool)
	c.closed = true
	close(c.send)
}

// readPump pumps messages from the WebSocket connection into the event
// dispatcher.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.sendTo(c, EventError, "invalid message envelope")
			continue
		}
		c.hub.dispatch(c, msg)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
