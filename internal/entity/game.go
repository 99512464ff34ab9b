package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/tictactoe"
)

// Phase of a room's game.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
)

// GameState is the authoritative snapshot broadcast to a room.
type GameState struct {
	Board         tictactoe.Board `json:"board"`
	CurrentPlayer tictactoe.Mark  `json:"currentPlayer"`
	Winner        tictactoe.Mark  `json:"winner"`
	IsDraw        bool            `json:"isDraw"`
	RoomID        string          `json:"gameId"`
	Players       Roster          `json:"players"`
	IsActive      bool            `json:"isGameActive"`
}

// NewGameState - a fresh board with the creator seated as X.
func NewGameState(roomID string, creator Player) *GameState {
	creator.Symbol = tictactoe.X

	return &GameState{
		CurrentPlayer: tictactoe.X,
		RoomID:        roomID,
		Players:       NewRoster(creator),
	}
}

// Join - seats the player as O and activates the game.
func (that *GameState) Join(player Player) error {
	player.Symbol = tictactoe.O
	if _, taken := that.Players.BySymbol(tictactoe.O); taken {
		return fmt.Errorf("%w: symbol %s taken", apperror.ErrRoomFull, tictactoe.O)
	}

	if err := that.Players.add(player); err != nil {
		return err
	}

	that.IsActive = that.Players.Len() == MaxPlayers && !that.IsFinished()

	return nil
}

// ApplyMove - writes the acting player's symbol and advances the game.
// Any returned error means the state is unchanged.
func (that *GameState) ApplyMove(identity string, cell int) error {
	if !that.IsActive {
		return apperror.ErrGameInactive
	}

	if !tictactoe.InRange(cell) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	player, ok := that.Players.Get(identity)
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrNotAPlayer, identity)
	}

	if player.Symbol != that.CurrentPlayer {
		return apperror.ErrNotYourTurn
	}

	if that.Board[cell] != tictactoe.Empty {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	that.Board[cell] = that.CurrentPlayer

	if winner, won := tictactoe.EvaluateWinner(that.Board); won {
		that.Winner = winner
		that.IsActive = false
		return nil
	}

	if tictactoe.IsFull(that.Board) {
		that.IsDraw = true
		that.IsActive = false
		return nil
	}

	that.CurrentPlayer = that.CurrentPlayer.Opponent()

	return nil
}

// Reset - clears the board, keeps the players and their symbols.
func (that *GameState) Reset() {
	that.Board = tictactoe.Board{}
	that.CurrentPlayer = tictactoe.X
	that.Winner = tictactoe.Empty
	that.IsDraw = false
	that.IsActive = that.Players.Len() == MaxPlayers
}

func (that *GameState) IsFinished() bool {
	return that.Winner != tictactoe.Empty || that.IsDraw
}

func (that *GameState) Phase() Phase {
	switch {
	case that.IsFinished():
		return PhaseFinished
	case that.Players.Len() < MaxPlayers:
		return PhaseWaiting
	default:
		return PhaseInProgress
	}
}

// Clone - deep copy safe to hand to another goroutine.
func (that *GameState) Clone() *GameState {
	clone := *that
	clone.Players = NewRoster(that.Players.players...)

	return &clone
}
