package repository

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

// RoomRegistry is the in-memory table of live rooms.
//
// The registry only guards its own maps. A Room's state and members are
// guarded by the room lock, which callers take before Attach and Remove.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*entity.Room
	conns map[string]map[string]struct{}
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*entity.Room),
		conns: make(map[string]map[string]struct{}),
	}
}

// Create - registers the room under its id, failing when the id is taken.
func (that *RoomRegistry) Create(room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, exists := that.rooms[room.ID]; exists {
		return fmt.Errorf("%w: %s", apperror.ErrRoomExists, room.ID)
	}

	that.rooms[room.ID] = room

	return nil
}

func (that *RoomRegistry) Get(roomID string) (*entity.Room, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[roomID]

	return room, ok
}

// Attach - indexes the connection as a member of the room.
func (that *RoomRegistry) Attach(roomID, connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	rooms, ok := that.conns[connID]
	if !ok {
		rooms = make(map[string]struct{})
		that.conns[connID] = rooms
	}

	rooms[roomID] = struct{}{}
}

// RoomsOf - ids of the rooms the connection is joined to.
func (that *RoomRegistry) RoomsOf(connID string) []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	roomIDs := make([]string, 0, len(that.conns[connID]))
	for roomID := range that.conns[connID] {
		roomIDs = append(roomIDs, roomID)
	}

	return roomIDs
}

// Remove - drops the room and its members from the connection index.
func (that *RoomRegistry) Remove(roomID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if !ok {
		return
	}

	delete(that.rooms, roomID)

	for _, connID := range room.Members() {
		rooms := that.conns[connID]
		delete(rooms, roomID)

		if len(rooms) == 0 {
			delete(that.conns, connID)
		}
	}
}

// Len - number of live rooms.
func (that *RoomRegistry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}
