package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-relay/internal/pkg"
)

func (that *Server) handleCreateGame(ctx context.Context, conn *connection, msg *Message) error {
	var payload CreateGamePayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	if payload.GameState == nil {
		return fmt.Errorf("%w: gameState is required", errMalformedPayload)
	}

	creator, ok := payload.GameState.Players.First()
	if !ok {
		return fmt.Errorf("%w: gameState has no players", errMalformedPayload)
	}

	if !pkg.IsRoomID(payload.GameID) {
		conn.logger.Debug("room id is not in the generated format", "roomID", payload.GameID)
	}

	return that.coordinator.CreateGame(ctx, conn.id, payload.GameID, creator)
}

func (that *Server) handleJoinGame(ctx context.Context, conn *connection, msg *Message) error {
	var payload JoinGamePayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	if payload.Player == nil || payload.Player.ID == "" {
		return fmt.Errorf("%w: player id is required", errMalformedPayload)
	}

	return that.coordinator.JoinGame(ctx, conn.id, payload.GameID, *payload.Player)
}

func (that *Server) handleMakeMove(ctx context.Context, conn *connection, msg *Message) error {
	var payload MakeMovePayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	if payload.PlayerID == "" || payload.Index == nil {
		return fmt.Errorf("%w: playerId and index are required", errMalformedPayload)
	}

	return that.coordinator.MakeMove(ctx, conn.id, payload.GameID, payload.PlayerID, *payload.Index)
}

func (that *Server) handleResetGame(ctx context.Context, conn *connection, msg *Message) error {
	var payload ResetGamePayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	return that.coordinator.ResetGame(ctx, conn.id, payload.GameID)
}

func (that *Server) handleChatMessage(ctx context.Context, conn *connection, msg *Message) error {
	var payload ChatMessagePayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	if payload.Message == nil {
		return fmt.Errorf("%w: message is required", errMalformedPayload)
	}

	return that.coordinator.SendChat(ctx, conn.id, payload.GameID, *payload.Message)
}

// decodePayload - every inbound action names its room.
func decodePayload[T interface{ roomID() string }](msg *Message, payload T) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%w: payload is required", errMalformedPayload)
	}

	if err := json.Unmarshal(msg.Payload, payload); err != nil {
		return fmt.Errorf("%w: %w", errMalformedPayload, err)
	}

	if payload.roomID() == "" {
		return fmt.Errorf("%w: gameId is required", errMalformedPayload)
	}

	return nil
}

func (that *CreateGamePayload) roomID() string { return that.GameID }
func (that *JoinGamePayload) roomID() string { return that.GameID }
func (that *MakeMovePayload) roomID() string { return that.GameID }
func (that *ResetGamePayload) roomID() string { return that.GameID }
func (that *ChatMessagePayload) roomID() string { return that.GameID }
