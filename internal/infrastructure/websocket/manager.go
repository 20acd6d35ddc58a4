package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"groupchat/internal/infrastructure/metrics"
	"groupchat/internal/usecase"
	"groupchat/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 256
)

// Client is one WebSocket connection. It implements usecase.EventSink.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	mu     sync.Mutex
	userID string
	closed bool
}

func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
	}
}

func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Client) SetUserID(uid string) {
	c.mu.Lock()
	c.userID = uid
	c.mu.Unlock()
}

// Emit queues an event for the write pump. A client whose buffer is full is
// too slow to keep up and gets disconnected.
func (c *Client) Emit(event string, data interface{}) {
	payload, err := json.Marshal(WSMessage{
		Type:      event,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("WebSocket: failed to encode %s event for client %s: %v", event, c.ID, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- payload:
	default:
		logger.Warn("WebSocket: send buffer full for client %s, disconnecting", c.ID)
		c.closed = true
		close(c.Send)
	}
}

// close shuts the send channel once; the write pump then closes the socket.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Manager tracks live connections.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
	done       chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done, then closes every client.
func (m *Manager) Run(ctx context.Context) error {
	defer close(m.done)
	for {
		select {
		case client := <-m.Register:
			m.mutex.Lock()
			m.clients[client.ID] = client
			m.mutex.Unlock()
			metrics.WebSocketConnections.Inc()
			logger.Debug("WebSocket: client registered: %s", client.ID)

		case client := <-m.Unregister:
			m.mutex.Lock()
			if _, ok := m.clients[client.ID]; ok {
				delete(m.clients, client.ID)
				metrics.WebSocketConnections.Dec()
			}
			m.mutex.Unlock()
			client.close()
			logger.Debug("WebSocket: client unregistered: %s", client.ID)

		case <-ctx.Done():
			m.mutex.Lock()
			for id, client := range m.clients {
				client.close()
				delete(m.clients, id)
				metrics.WebSocketConnections.Dec()
			}
			m.mutex.Unlock()
			return nil
		}
	}
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// Attach registers client. It reports false once the manager has stopped.
func (m *Manager) Attach(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

// Detach unregisters client. Safe to call after the manager has stopped.
func (m *Manager) Detach(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
		client.close()
	}
}

// ServeSession runs the pumps for one connection and blocks until it
// closes. The session is closed on return.
func (m *Manager) ServeSession(ctx context.Context, client *Client, session *usecase.Session, handler *MessageHandler) {
	if !m.Attach(client) {
		client.Conn.Close()
		return
	}
	defer session.Close()

	go client.WritePump()
	client.ReadPump(m, func(raw []byte) {
		handler.HandleClientMessage(ctx, client, session, raw)
	})
}

// ReadPump feeds inbound frames to handle until the connection drops.
func (c *Client) ReadPump(m *Manager, handle func([]byte)) {
	defer func() {
		m.Detach(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket: read error for client %s: %v", c.ID, err)
			}
			return
		}
		handle(message)
	}
}

// WritePump drains Send to the socket and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket: write error for client %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
