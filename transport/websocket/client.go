package websocket

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

const sendBufferSize = 32

// client is one websocket connection. userID is empty until login and is
// only touched from the connection's own read loop.
type client struct {
	conn   *websocket.Conn
	userID string

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// enqueue hands a message to the write pump. It reports false when the
// client is gone or its buffer is full; broadcasts may arrive from other
// connections' goroutines, so the closed check and the channel send sit
// under one lock.
func (that *client) enqueue(data []byte) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	select {
	case that.send <- data:
		return true
	default:
		return false
	}
}

func (that *client) shutdown() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.closed {
		that.closed = true
		close(that.send)
	}
}

// writePump drains the send channel onto the wire. It exits when the
// channel is closed, closing the connection with it.
func (that *client) writePump(logger *slog.Logger) {
	defer that.conn.Close()

	for data := range that.send {
		if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Error("failed to write message", "error", err)
			return
		}
	}
}
