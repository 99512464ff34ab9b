package usecase

// outbound actions.
const (
	ActionGameCreated  = "gameCreated"
	ActionPlayerJoined = "playerJoined"
	ActionJoinError    = "joinError"
	ActionMoveMade     = "moveMade"
	ActionGameReset    = "gameReset"
	ActionChatMessage  = "chatMessage"
	ActionPlayerLeft   = "playerLeft"
)

// Notification is a message produced by the coordinator for one or more connections.
// Payload is nil for notifications without a body.
type Notification struct {
	Action  string
	Payload any
}

type JoinError struct {
	Message string `json:"message"`
}
