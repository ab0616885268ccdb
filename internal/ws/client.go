package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendQueueSize = 64
	writeWait     = 10 * time.Second
)

// Client represents one authenticated websocket connection.
//
// The send channel is never closed by broadcasters; done signals the write
// pump to stop, and Close is idempotent.
type Client struct {
	ConnID string
	UserID int

	conn *websocket.Conn
	send chan OutboundEvent

	done      chan struct{}
	closeOnce sync.Once

	ConnectedAt time.Time
}

// NewClient wraps an upgraded connection with a bounded send queue.
func NewClient(connID string, userID int, conn *websocket.Conn) *Client {
	return &Client{
		ConnID:      connID,
		UserID:      userID,
		conn:        conn,
		send:        make(chan OutboundEvent, sendQueueSize),
		done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}
}

// Enqueue queues an event for delivery. Delivery is best-effort: a client
// whose queue is full is dropped rather than allowed to block fan-out.
func (c *Client) Enqueue(event OutboundEvent) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- event:
		return true
	default:
		log.Printf("websocket send queue full, dropping connection conn_id=%s user_id=%d", c.ConnID, c.UserID)
		c.Close()
		return false
	}
}

// Close signals the client goroutines to stop (idempotent).
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Done is closed when the client is shutting down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// WritePump serializes all writes to the underlying connection. It exits
// when the client is closed, closing the socket on the way out.
func (c *Client) WritePump() {
	defer c.conn.Close()
	for {
		select {
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				log.Printf("websocket write error: %v", err)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
