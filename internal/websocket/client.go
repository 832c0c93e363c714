package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"context-retriever-be/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 64
)

// MessageHandler processes one inbound frame. It runs on the read goroutine,
// so long work must be moved off it.
type MessageHandler func(c *Client, data []byte)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// UserID associated with this connection
	UserID string

	// ConnID tells apart several connections of one user.
	ConnID uuid.UUID

	// Buffered channel of outbound messages.
	Send chan []byte

	onMessage MessageHandler

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, onMessage MessageHandler) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		UserID:    userID,
		ConnID:    uuid.New(),
		Send:      make(chan []byte, sendBuffer),
		onMessage: onMessage,
	}
}

// Push queues a frame. It never blocks and reports false when the client is
// gone or its buffer is full.
func (c *Client) Push(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// PushFrame marshals and queues a frame.
func (c *Client) PushFrame(frame dto.ChatOutbound) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		return false
	}
	return c.Push(data)
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// readPump pumps messages from the websocket connection to the message handler.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("ChatClient", "Unexpected close", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
			}
			break
		}
		if c.onMessage != nil {
			c.onMessage(c, message)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
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
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One frame per message: clients parse each frame as a JSON object.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// Serve registers the client and blocks until the connection closes.
func (c *Client) Serve() {
	c.Hub.register <- c

	go c.writePump()
	c.readPump()
}
