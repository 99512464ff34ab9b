package pkg

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	RoomIDLength   = 6
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateRoomID - generates a short uppercase alphanumeric identifier for the room.
func GenerateRoomID() (string, error) {
	var sb strings.Builder
	sb.Grow(RoomIDLength)

	limit := big.NewInt(int64(len(roomIDAlphabet)))
	for range RoomIDLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}

		sb.WriteByte(roomIDAlphabet[n.Int64()])
	}

	return sb.String(), nil
}

// IsRoomID - reports whether id looks like one produced by GenerateRoomID.
func IsRoomID(id string) bool {
	if len(id) != RoomIDLength {
		return false
	}

	for i := range len(id) {
		if strings.IndexByte(roomIDAlphabet, id[i]) < 0 {
			return false
		}
	}

	return true
}

// NewConnectionID - generates a unique identifier for a websocket connection.
func NewConnectionID() string {
	return uuid.NewString()
}
