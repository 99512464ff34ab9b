package entity

import (
	"slices"
	"sync"
)

// Room owns one GameState and the connections joined to it.
// Callers hold the room lock for every read or write of State and members.
type Room struct {
	mu sync.Mutex

	ID      string
	State   *GameState
	members []string
	closed  bool
}

func NewRoom(id string, state *GameState) *Room {
	return &Room{
		ID:    id,
		State: state,
	}
}

func (that *Room) Lock() {
	that.mu.Lock()
}

func (that *Room) Unlock() {
	that.mu.Unlock()
}

// AddMember - takes one seat for the connection.
func (that *Room) AddMember(connID string) {
	that.members = append(that.members, connID)
}

func (that *Room) HasMember(connID string) bool {
	return slices.Contains(that.members, connID)
}

// Seats - number of joins accepted so far.
func (that *Room) Seats() int {
	return len(that.members)
}

// Members - distinct connection ids in join order.
func (that *Room) Members() []string {
	members := make([]string, 0, len(that.members))
	for _, member := range that.members {
		if !slices.Contains(members, member) {
			members = append(members, member)
		}
	}

	return members
}

// MembersExcept - distinct connection ids other than connID.
func (that *Room) MembersExcept(connID string) []string {
	return slices.DeleteFunc(that.Members(), func(member string) bool {
		return member == connID
	})
}

// Close - marks the room as removed; later intents must not touch it.
func (that *Room) Close() {
	that.closed = true
}

func (that *Room) IsClosed() bool {
	return that.closed
}
