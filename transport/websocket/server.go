package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-relay/internal/config"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/pkg"
)

var errMalformedPayload = errors.New("malformed payload")

type coordinator interface {
	CreateGame(ctx context.Context, connID, roomID string, creator entity.Player) error
	JoinGame(ctx context.Context, connID, roomID string, player entity.Player) error
	MakeMove(ctx context.Context, connID, roomID, identity string, cell int) error
	ResetGame(ctx context.Context, connID, roomID string) error
	SendChat(ctx context.Context, connID, roomID string, message entity.ChatMessage) error
	Disconnect(ctx context.Context, connID string)
}

type handlerFunc func(ctx context.Context, conn *connection, message *Message) error

// Server upgrades HTTP requests and turns inbound frames into coordinator intents.
type Server struct {
	logger      *slog.Logger
	conf        config.Websocket
	hub         *Hub
	coordinator coordinator
	upgrader    websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, conf config.Websocket, hub *Hub, coordinator coordinator) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		conf:        conf,
		hub:         hub,
		coordinator: coordinator,
	}

	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     server.checkOrigin,
	}

	server.handlers = map[string]handlerFunc{
		ActionCreateGame:  server.handleCreateGame,
		ActionJoinGame:    server.handleJoinGame,
		ActionMakeMove:    server.handleMakeMove,
		ActionResetGame:   server.handleResetGame,
		ActionChatMessage: server.handleChatMessage,
	}

	return server
}

// ServeHTTP - upgrades the request and serves the connection until it closes.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Info("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(that.logger, pkg.NewConnectionID(), ws, that.conf.SendBuffer)
	if !that.hub.add(conn) {
		log.Info("shutting down, connection refused", "connID", conn.id)

		closeMessage := websocket.FormatCloseMessage(websocket.CloseServiceRestart, "shutting down")
		_ = ws.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(that.conf.WriteTimeout))
		_ = ws.Close()

		return
	}

	log.Info("WebSocket connection established", "connID", conn.id, "remote", req.RemoteAddr)

	go conn.writePump(that.conf.PingInterval, that.conf.WriteTimeout)

	ctx := context.WithoutCancel(req.Context())
	that.readPump(ctx, conn)

	conn.close()
	that.coordinator.Disconnect(ctx, conn.id)
	that.hub.remove(conn.id)

	log.Info("WebSocket connection closed", "connID", conn.id)
}

// Shutdown - closes every connection and waits for their cleanup.
func (that *Server) Shutdown(ctx context.Context) error {
	that.hub.closeAll()

	done := make(chan struct{})
	go func() {
		that.hub.wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("websocket shutdown: %w", ctx.Err())
	}
}

// readPump - dispatches frames in arrival order until the peer goes away or misses a pong.
func (that *Server) readPump(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "readPump", "connID", conn.id)

	conn.ws.SetReadLimit(that.conf.MaxMessageSize)
	extend := func() error {
		return conn.ws.SetReadDeadline(time.Now().Add(that.conf.PongTimeout))
	}

	if err := extend(); err != nil {
		log.Debug("failed to set read deadline", "error", err)
		return
	}

	conn.ws.SetPongHandler(func(string) error {
		return extend()
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("connection read failed", "error", err)
			}

			return
		}

		if err = extend(); err != nil {
			return
		}

		that.dispatch(ctx, conn, data)
	}
}

func (that *Server) dispatch(ctx context.Context, conn *connection, data []byte) {
	log := that.logger.With("method", "dispatch", "connID", conn.id)

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		log.Debug("failed to unmarshal message", "error", err)
		that.sendErrorResponse(conn, "", "invalid message")
		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Debug("unknown action", "action", message.Action)
		that.sendErrorResponse(conn, message.Action, "unknown action")
		return
	}

	if err := handler(ctx, conn, &message); err != nil {
		if errors.Is(err, errMalformedPayload) {
			log.Debug("malformed payload", "action", message.Action, "error", err)
			that.sendErrorResponse(conn, message.Action, err.Error())
			return
		}

		log.Debug("intent rejected", "action", message.Action, "error", err)
	}
}

func (that *Server) sendErrorResponse(conn *connection, action, errorMsg string) {
	data, err := Encode(ActionError, ErrorPayload{Action: action, Message: errorMsg})
	if err != nil {
		that.logger.Error("failed to encode error response", "error", err)
		return
	}

	if !conn.enqueue(data) {
		conn.close()
	}
}

// checkOrigin - an empty allow list accepts every origin. Requests without an Origin header are not from browsers.
func (that *Server) checkOrigin(req *http.Request) bool {
	if len(that.conf.AllowedOrigins) == 0 {
		return true
	}

	origin := req.Header.Get("Origin")

	return origin == "" || slices.Contains(that.conf.AllowedOrigins, origin)
}
