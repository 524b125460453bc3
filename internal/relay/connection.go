package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumos-edit/lumos/backend/internal/shared/id"
	"github.com/lumos-edit/lumos/backend/internal/shared/types"
)

// connection is one transport-level participant. Role and session are
// assigned once, on join, and never change for the life of the socket.
type connection struct {
	id   string
	sock *websocket.Conn

	mu        sync.Mutex
	role      types.Role
	sessionID string

	out       chan []byte
	closeOnce sync.Once
	done      chan struct{}

	writeTimeout time.Duration
}

func newConnection(sock *websocket.Conn, sendBuffer int, writeTimeout time.Duration) *connection {
	return &connection{
		id:           id.NewConnectionID().String(),
		sock:         sock,
		out:          make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

// ID implements registry.Member
func (c *connection) ID() string { return c.id }

// Enqueue implements registry.Member. Delivery is fire-and-forget: a
// full buffer or closed connection drops the message.
func (c *connection) Enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.out <- msg:
		return true
	default:
		return false
	}
}

// writePump serializes all socket writes, preserving per-sender FIFO
// order. It exits when the connection closes.
func (c *connection) writePump() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.out:
			c.sock.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.sock.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// join assigns role and session exactly once
func (c *connection) join(sessionID string, role types.Role) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID != "" {
		return false
	}
	c.sessionID = sessionID
	c.role = role
	return true
}

// membership returns the assigned session and role, if joined
func (c *connection) membership() (string, types.Role, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID, c.role, c.sessionID != ""
}

// close tears the connection down; safe to call multiple times
func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.sock.Close()
	})
}
