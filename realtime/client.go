package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/feedcircle/feedcircle/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 2048
	sendQueueSize  = 64
)

// Client is one authenticated realtime connection. A client may sit in any
// number of rooms at once, including none. Its room set is owned by the
// hub and only touched under the hub's lock.
type Client struct {
	ID       string
	UserID   uint
	Username string

	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]struct{}

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps an upgraded connection. The caller is expected to start
// ReadPump and WritePump afterwards.
func NewClient(hub *Hub, conn *websocket.Conn, userID uint, username string) *Client {
	return &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendQueueSize),
		rooms:    make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

// enqueue pushes an encoded frame onto the outbound queue without
// blocking. Reports false when the queue is full and the frame dropped.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Send encodes and queues an event for this client alone, e.g. join/leave
// acks and error frames.
func (c *Client) Send(event string, data interface{}) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Errorf("realtime: encode %s event failed: %v", event, err)
		}
		return
	}
	c.enqueue(frame)
}

// Close tears the connection down once. The hub is swept so no room keeps
// a reference to this client.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.hub.Disconnect(c)
		_ = c.conn.Close()
	})
}

// ReadPump consumes inbound frames until the connection drops and hands
// each decoded envelope to handle. It drives the connection's liveness via
// read deadlines refreshed on pong.
func (c *Client) ReadPump(handle func(*Client, Envelope)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				if utils.Sugar != nil {
					utils.Sugar.Debugf("realtime: client %s read error: %v", c.ID, err)
				}
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.Send(EventError, ErrorPayload{Message: "malformed event"})
			continue
		}
		handle(c, env)
	}
}

// WritePump drains the outbound queue onto the wire and keeps the
// connection alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
