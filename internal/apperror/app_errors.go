package apperror

import "errors"

// protocol errors, reported to the originating connection.
var (
	ErrRoomExists   = errors.New("game already exists")
	ErrRoomNotFound = errors.New("game not found")
	ErrRoomFull     = errors.New("game is full")
	ErrPlayerExists = errors.New("player already in game")
)

// invalid moves, dropped without notification.
var (
	ErrGameInactive = errors.New("game is not active")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrInvalidCell  = errors.New("invalid cell index")
	ErrNotAPlayer   = errors.New("identity is not a player of this game")
)

var ErrRoomClosed = errors.New("game room is closed")

// JoinErrorMessage - maps a protocol error to the text sent in joinError.
func JoinErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrRoomExists):
		return "Game already exists", true
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrRoomClosed):
		return "Game not found", true
	case errors.Is(err, ErrRoomFull):
		return "Game is full", true
	case errors.Is(err, ErrPlayerExists):
		return "Player already in game", true
	default:
		return "", false
	}
}
