package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connection is one accepted client. Only writePump writes to ws.
type connection struct {
	id     string
	ws     *websocket.Conn
	logger *slog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(logger *slog.Logger, id string, ws *websocket.Conn, sendBuffer int) *connection {
	return &connection{
		id:     id,
		ws:     ws,
		logger: logger.With("connID", id),
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// enqueue - reports false when the queue is full. Frames for a closed connection are dropped.
func (that *connection) enqueue(data []byte) bool {
	select {
	case <-that.done:
		return true
	default:
	}

	select {
	case that.send <- data:
		return true
	default:
		return false
	}
}

func (that *connection) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// writePump - drains the send queue and pings the peer until the connection is closed.
func (that *connection) writePump(pingInterval, writeTimeout time.Duration) {
	log := that.logger.With("method", "writePump")

	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		that.ws.Close()
	}()

	for {
		select {
		case data := <-that.send:
			if err := that.write(websocket.TextMessage, data, writeTimeout); err != nil {
				log.Debug("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := that.write(websocket.PingMessage, nil, writeTimeout); err != nil {
				log.Debug("failed to write ping", "error", err)
				return
			}

		case <-that.done:
			closeMessage := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
			if err := that.ws.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeTimeout)); err != nil &&
				!errors.Is(err, websocket.ErrCloseSent) {
				log.Debug("failed to write close message", "error", err)
			}

			return
		}
	}
}

func (that *connection) write(messageType int, data []byte, writeTimeout time.Duration) error {
	if err := that.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	return that.ws.WriteMessage(messageType, data)
}
