package websocket

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-relay/internal/usecase"
)

// Hub tracks live connections and delivers coordinator notifications to them.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	conns   map[string]*connection
	closing bool
	active  sync.WaitGroup
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "hub"),
		conns:  make(map[string]*connection),
	}
}

// Notify - queues the notification on every listed connection without blocking.
// A connection whose queue is full is closed.
func (that *Hub) Notify(connIDs []string, notification usecase.Notification) {
	log := that.logger.With("method", "Notify", "action", notification.Action)

	if len(connIDs) == 0 {
		return
	}

	data, err := encodeNotification(notification)
	if err != nil {
		log.Error("failed to encode notification", "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, connID := range connIDs {
		conn, ok := that.conns[connID]
		if !ok {
			continue
		}

		if !conn.enqueue(data) {
			log.Warn("send queue full, closing connection", "connID", connID)
			conn.close()
		}
	}
}

func (that *Hub) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.conns)
}

// add - registers the connection, refusing it once closeAll has run.
func (that *Hub) add(conn *connection) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closing {
		return false
	}

	that.conns[conn.id] = conn
	that.active.Add(1)

	return true
}

// remove - drops a connection registered by add once its cleanup is done.
func (that *Hub) remove(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.conns[connID]; !ok {
		return
	}

	delete(that.conns, connID)
	that.active.Done()
}

// closeAll - asks every connection to close and refuses new ones.
func (that *Hub) closeAll() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closing = true

	for _, conn := range that.conns {
		conn.close()
	}
}

// wait - blocks until every registered connection is removed.
func (that *Hub) wait() {
	that.active.Wait()
}
