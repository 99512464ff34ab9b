package entity

import (
	"time"

	"github.com/rocketscienceinc/tictactoe-relay/internal/tictactoe"
)

// MatchRecord - summary of a finished game kept in match history.
type MatchRecord struct {
	RoomID     string          `json:"roomId"`
	Winner     tictactoe.Mark  `json:"winner"`
	IsDraw     bool            `json:"isDraw"`
	Board      tictactoe.Board `json:"board"`
	Players    []Player        `json:"players"`
	FinishedAt time.Time       `json:"finishedAt"`
}

func NewMatchRecord(state *GameState, finishedAt time.Time) *MatchRecord {
	return &MatchRecord{
		RoomID:     state.RoomID,
		Winner:     state.Winner,
		IsDraw:     state.IsDraw,
		Board:      state.Board,
		Players:    state.Players.Players(),
		FinishedAt: finishedAt.UTC(),
	}
}
