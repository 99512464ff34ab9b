// Package client is a Go counterpart of the browser game service: it dials the
// relay, sends intents and keeps the last authoritative GameState.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-relay/internal/usecase"
	gateway "github.com/rocketscienceinc/tictactoe-relay/transport/websocket"
)

const (
	eventBuffer  = 64
	writeTimeout = 5 * time.Second
)

var (
	ErrNoGame = errors.New("not in a game")
	ErrClosed = errors.New("client closed")
)

// StateUpdate is a GameState notification together with the action that carried it.
type StateUpdate struct {
	Action string
	State  *entity.GameState
}

type Client struct {
	logger *slog.Logger
	ws     *websocket.Conn

	writeMu sync.Mutex

	mu     sync.RWMutex
	player entity.Player
	roomID string
	state  *entity.GameState

	states     chan StateUpdate
	chat       chan entity.ChatMessage
	joinErrors chan string
	playerLeft chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

// Dial - connects to the relay websocket endpoint, e.g. ws://localhost:3001/ws.
func Dial(ctx context.Context, logger *slog.Logger, url string) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	client := &Client{
		logger:     logger.With("component", "client"),
		ws:         ws,
		states:     make(chan StateUpdate, eventBuffer),
		chat:       make(chan entity.ChatMessage, eventBuffer),
		joinErrors: make(chan string, eventBuffer),
		playerLeft: make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	go client.readLoop()

	return client, nil
}

// CreateGame - opens a room under a fresh id with the player as creator and returns the id.
func (that *Client) CreateGame(player entity.Player) (string, error) {
	roomID, err := pkg.GenerateRoomID()
	if err != nil {
		return "", fmt.Errorf("failed to generate room id: %w", err)
	}

	if err = that.CreateGameWithID(roomID, player); err != nil {
		return "", err
	}

	return roomID, nil
}

// CreateGameWithID - opens a room under the given id.
func (that *Client) CreateGameWithID(roomID string, player entity.Player) error {
	that.setIdentity(roomID, player)

	return that.send(gateway.ActionCreateGame, gateway.CreateGamePayload{
		GameID:    roomID,
		GameState: entity.NewGameState(roomID, player),
	})
}

func (that *Client) JoinGame(roomID string, player entity.Player) error {
	that.setIdentity(roomID, player)

	return that.send(gateway.ActionJoinGame, gateway.JoinGamePayload{GameID: roomID, Player: &player})
}

// MakeMove - claims the cell as the local player.
func (that *Client) MakeMove(index int) error {
	roomID, player := that.identity()
	if roomID == "" {
		return ErrNoGame
	}

	return that.send(gateway.ActionMakeMove, gateway.MakeMovePayload{GameID: roomID, PlayerID: player.ID, Index: &index})
}

func (that *Client) ResetGame() error {
	roomID, _ := that.identity()
	if roomID == "" {
		return ErrNoGame
	}

	return that.send(gateway.ActionResetGame, gateway.ResetGamePayload{GameID: roomID})
}

func (that *Client) SendChat(text string) error {
	roomID, player := that.identity()
	if roomID == "" {
		return ErrNoGame
	}

	message := entity.ChatMessage{Sender: player.Name, Text: text, Timestamp: time.Now().UnixMilli()}

	return that.send(gateway.ActionChatMessage, gateway.ChatMessagePayload{GameID: roomID, Message: &message})
}

// State - copy of the last GameState received, nil before the first one.
func (that *Client) State() *entity.GameState {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.state == nil {
		return nil
	}

	return that.state.Clone()
}

func (that *Client) States() <-chan StateUpdate { return that.states }
func (that *Client) Chat() <-chan entity.ChatMessage { return that.chat }
func (that *Client) JoinErrors() <-chan string { return that.joinErrors }
func (that *Client) PlayerLeft() <-chan struct{} { return that.playerLeft }
func (that *Client) Done() <-chan struct{} { return that.done }

// Close - sends a close frame and drops the connection.
func (that *Client) Close() error {
	that.writeMu.Lock()
	_ = that.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
	that.writeMu.Unlock()

	err := that.ws.Close()
	that.markDone()

	return err
}

func (that *Client) setIdentity(roomID string, player entity.Player) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.roomID = roomID
	that.player = player
}

func (that *Client) identity() (string, entity.Player) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.roomID, that.player
}

func (that *Client) send(action string, payload any) error {
	select {
	case <-that.done:
		return ErrClosed
	default:
	}

	data, err := gateway.Encode(action, payload)
	if err != nil {
		return err
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err = that.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", action, err)
	}

	return nil
}

func (that *Client) readLoop() {
	log := that.logger.With("method", "readLoop")
	defer that.markDone()

	for {
		_, data, err := that.ws.ReadMessage()
		if err != nil {
			log.Debug("connection closed", "error", err)
			return
		}

		if err = that.handle(data); err != nil {
			log.Debug("failed to handle message", "error", err)
		}
	}
}

func (that *Client) handle(data []byte) error {
	var message gateway.Message
	if err := json.Unmarshal(data, &message); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	switch message.Action {
	case usecase.ActionGameCreated, usecase.ActionPlayerJoined, usecase.ActionMoveMade, usecase.ActionGameReset:
		var state entity.GameState
		if err := json.Unmarshal(message.Payload, &state); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", message.Action, err)
		}

		that.replaceState(&state)
		push(that.states, StateUpdate{Action: message.Action, State: state.Clone()})

	case usecase.ActionChatMessage:
		var chat entity.ChatMessage
		if err := json.Unmarshal(message.Payload, &chat); err != nil {
			return fmt.Errorf("failed to unmarshal chat message: %w", err)
		}

		push(that.chat, chat)

	case usecase.ActionJoinError:
		var joinError usecase.JoinError
		if err := json.Unmarshal(message.Payload, &joinError); err != nil {
			return fmt.Errorf("failed to unmarshal join error: %w", err)
		}

		push(that.joinErrors, joinError.Message)

	case usecase.ActionPlayerLeft:
		push(that.playerLeft, struct{}{})

	case gateway.ActionError:
		var payload gateway.ErrorPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal error: %w", err)
		}

		that.logger.Warn("relay rejected a frame", "action", payload.Action, "message", payload.Message)

	default:
		return fmt.Errorf("unknown action %q", message.Action)
	}

	return nil
}

// replaceState - the cache is replaced wholesale, never merged.
func (that *Client) replaceState(state *entity.GameState) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.state = state
}

func (that *Client) markDone() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// push - drops the event when nobody keeps up with the channel.
func push[T any](ch chan T, event T) {
	select {
	case ch <- event:
	default:
	}
}
