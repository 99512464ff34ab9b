package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/tictactoe"
)

// MaxPlayers - seats per room.
const MaxPlayers = 2

var (
	ErrInvalidRoster   = errors.New("players must be a JSON object")
	ErrDuplicatePlayer = errors.New("duplicate player id")
)

type Player struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Symbol tictactoe.Mark `json:"symbol"`
}

// Roster maps identity to Player and keeps join order.
// It is encoded as a JSON object whose keys appear in join order.
type Roster struct {
	players []Player
}

func NewRoster(players ...Player) Roster {
	return Roster{players: append([]Player(nil), players...)}
}

func (that Roster) Len() int {
	return len(that.players)
}

func (that Roster) Get(id string) (Player, bool) {
	for _, player := range that.players {
		if player.ID == id {
			return player, true
		}
	}

	return Player{}, false
}

// BySymbol - returns the player holding the symbol.
func (that Roster) BySymbol(symbol tictactoe.Mark) (Player, bool) {
	for _, player := range that.players {
		if player.Symbol == symbol {
			return player, true
		}
	}

	return Player{}, false
}

// Players - returns a copy in join order.
func (that Roster) Players() []Player {
	return append([]Player(nil), that.players...)
}

// First - the creator of the room.
func (that Roster) First() (Player, bool) {
	if len(that.players) == 0 {
		return Player{}, false
	}

	return that.players[0], true
}

func (that *Roster) add(player Player) error {
	if _, exists := that.Get(player.ID); exists {
		return fmt.Errorf("%w: %s", apperror.ErrPlayerExists, player.ID)
	}

	if len(that.players) >= MaxPlayers {
		return fmt.Errorf("%w: %d players", apperror.ErrRoomFull, len(that.players))
	}

	that.players = append(that.players, player)

	return nil
}

func (that Roster) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')
	for i, player := range that.players {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(player.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal player id: %w", err)
		}

		value, err := json.Marshal(player)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal player: %w", err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (that *Roster) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	token, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read players: %w", err)
	}

	if token == nil {
		that.players = nil
		return nil
	}

	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return ErrInvalidRoster
	}

	roster := Roster{}
	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read player key: %w", err)
		}

		key, _ := keyToken.(string)

		var player Player
		if err = dec.Decode(&player); err != nil {
			return fmt.Errorf("failed to read player %q: %w", key, err)
		}

		if player.ID == "" {
			player.ID = key
		}

		if _, exists := roster.Get(player.ID); exists {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayer, player.ID)
		}

		roster.players = append(roster.players, player)
	}

	if _, err = dec.Token(); err != nil {
		return fmt.Errorf("failed to close players: %w", err)
	}

	that.players = roster.players

	return nil
}
