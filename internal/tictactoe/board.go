package tictactoe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// BoardSize - number of cells on the 3x3 board, indexed 0..8 row-major.
const BoardSize = 9

const (
	Empty Mark = ""
	X     Mark = "X"
	O     Mark = "O"
)

var (
	ErrUnknownMark = errors.New("unknown mark")

	// WinCombos - rows, columns, diagonals. The order is the check priority.
	WinCombos = [][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}

	jsonNull = []byte("null")
)

// Mark is the content of one cell, or a player symbol when not Empty.
type Mark string

// Board is a fixed 9-cell grid.
type Board [BoardSize]Mark

// IsSymbol - reports whether the mark is X or O.
func (that Mark) IsSymbol() bool {
	return that == X || that == O
}

// Opponent - returns the other symbol. Empty stays Empty.
func (that Mark) Opponent() Mark {
	switch that {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// MarshalJSON - empty cells travel as null.
func (that Mark) MarshalJSON() ([]byte, error) {
	if that == Empty {
		return jsonNull, nil
	}

	return json.Marshal(string(that))
}

func (that *Mark) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*that = Empty
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal mark: %w", err)
	}

	mark := Mark(raw)
	if mark != Empty && !mark.IsSymbol() {
		return fmt.Errorf("%w: %q", ErrUnknownMark, raw)
	}

	*that = mark

	return nil
}

// InRange - reports whether index addresses a cell of the board.
func InRange(index int) bool {
	return index >= 0 && index < BoardSize
}

// EvaluateWinner - returns the symbol filling the first complete line, if any.
func EvaluateWinner(board Board) (Mark, bool) {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != Empty && a == b && b == c {
			return a, true
		}
	}

	return Empty, false
}

// IsFull - true when no cell is Empty.
func IsFull(board Board) bool {
	for _, cell := range board {
		if cell == Empty {
			return false
		}
	}

	return true
}

// Occupied - counts the non-empty cells.
func Occupied(board Board) int {
	count := 0
	for _, cell := range board {
		if cell != Empty {
			count++
		}
	}

	return count
}
