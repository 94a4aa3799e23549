package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

// Client is one websocket connection. UserID is fixed at the handshake from
// the verified session cookie. lastRoomID tracks the most recently joined
// room; it is only touched from the client's own read goroutine.
type Client struct {
	ID         string
	UserID     uuid.UUID
	conn       *websocket.Conn
	send       chan []byte
	manager    *Manager
	lastRoomID string
}

func newClient(manager *Manager, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:      uuid.New().String(),
		UserID:  userID,
		conn:    conn,
		send:    make(chan []byte, 256),
		manager: manager,
	}
}

func (c *Client) readPump() {
	defer func() {
		c.manager.handleDisconnect(c)
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var event Event
		if err := c.conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS_READER] Unexpected close on connection %s: %v", c.ID, err)
			}
			return
		}
		c.manager.dispatch(c, event)
	}
}

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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// enqueue hands a marshaled event to the write pump without blocking. A full
// buffer means the peer stopped reading; the event is dropped.
func (c *Client) enqueue(eventType string, data map[string]any) {
	payload := struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data,omitempty"`
	}{Type: eventType, Data: data}

	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[WS] Failed to marshal %s event: %v", eventType, err)
		return
	}

	select {
	case c.send <- raw:
	default:
		log.Printf("[WS] Dropping %s event for slow connection %s", eventType, c.ID)
	}
}
