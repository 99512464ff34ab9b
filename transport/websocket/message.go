package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/usecase"
)

// inbound actions.
const (
	ActionCreateGame  = "createGame"
	ActionJoinGame    = "joinGame"
	ActionMakeMove    = "makeMove"
	ActionResetGame   = "resetGame"
	ActionChatMessage = "chatMessage"
)

// ActionError answers a frame that could not be processed.
const ActionError = "error"

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type CreateGamePayload struct {
	GameID    string            `json:"gameId"`
	GameState *entity.GameState `json:"gameState"`
}

type JoinGamePayload struct {
	GameID string         `json:"gameId"`
	Player *entity.Player `json:"player"`
}

type MakeMovePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Index    *int   `json:"index"`
}

type ResetGamePayload struct {
	GameID string `json:"gameId"`
}

type ChatMessagePayload struct {
	GameID  string              `json:"gameId"`
	Message *entity.ChatMessage `json:"message"`
}

type ErrorPayload struct {
	Action  string `json:"action,omitempty"`
	Message string `json:"message"`
}

// Encode - builds a frame. A nil payload is omitted.
func Encode(action string, payload any) ([]byte, error) {
	message := Message{Action: action}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", action, err)
		}

		message.Payload = raw
	}

	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

func encodeNotification(notification usecase.Notification) ([]byte, error) {
	return Encode(notification.Action, notification.Payload)
}
