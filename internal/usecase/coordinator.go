package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/tictactoe"
)

const recordTimeout = 5 * time.Second

type roomRegistry interface {
	Create(room *entity.Room) error
	Get(roomID string) (*entity.Room, bool)
	Attach(roomID, connID string)
	RoomsOf(connID string) []string
	Remove(roomID string)
}

// notifier delivers notifications to connections. Notify is called with a
// room lock held, so it must not block on the network.
type notifier interface {
	Notify(connIDs []string, notification Notification)
}

type matchRepo interface {
	Save(ctx context.Context, record *entity.MatchRecord) error
}

// Coordinator applies intents to rooms and emits the resulting notifications.
// Intents on one room are serialized by the room lock; rooms are independent.
type Coordinator struct {
	logger    *slog.Logger
	registry  roomRegistry
	notifier  notifier
	matchRepo matchRepo

	now     func() time.Time
	records sync.WaitGroup
}

// NewCoordinator - matchRepo may be nil, which disables match history.
func NewCoordinator(logger *slog.Logger, registry roomRegistry, notifier notifier, matchRepo matchRepo) *Coordinator {
	return &Coordinator{
		logger:    logger.With("component", "coordinator"),
		registry:  registry,
		notifier:  notifier,
		matchRepo: matchRepo,
		now:       time.Now,
	}
}

// CreateGame - registers roomID with the creator seated as X.
func (that *Coordinator) CreateGame(_ context.Context, connID, roomID string, creator entity.Player) error {
	log := that.logger.With("method", "CreateGame", "roomID", roomID, "connID", connID)

	room := entity.NewRoom(roomID, entity.NewGameState(roomID, creator))

	room.Lock()
	defer room.Unlock()

	if err := that.registry.Create(room); err != nil {
		log.Info("failed to create game", "error", err)
		that.sendJoinError(connID, err)
		return err
	}

	room.AddMember(connID)
	that.registry.Attach(roomID, connID)

	that.broadcast(room, ActionGameCreated)

	log.Info("game created", "playerID", creator.ID)

	return nil
}

// JoinGame - seats the player as O and starts the game.
func (that *Coordinator) JoinGame(_ context.Context, connID, roomID string, player entity.Player) error {
	log := that.logger.With("method", "JoinGame", "roomID", roomID, "connID", connID)

	room, err := that.lockRoom(roomID)
	if err != nil {
		log.Info("failed to join game", "error", err)
		that.sendJoinError(connID, err)
		return err
	}
	defer room.Unlock()

	if room.Seats() >= entity.MaxPlayers {
		err = fmt.Errorf("%w: %s", apperror.ErrRoomFull, roomID)
		log.Info("failed to join game", "error", err)
		that.sendJoinError(connID, err)
		return err
	}

	if err = room.State.Join(player); err != nil {
		log.Info("failed to join game", "error", err)
		that.sendJoinError(connID, err)
		return err
	}

	room.AddMember(connID)
	that.registry.Attach(roomID, connID)

	that.broadcast(room, ActionPlayerJoined)

	log.Info("player joined game", "playerID", player.ID, "phase", room.State.Phase())

	return nil
}

// MakeMove - applies the move when it is legal. Illegal moves return the
// reason and notify nobody.
func (that *Coordinator) MakeMove(_ context.Context, connID, roomID, identity string, cell int) error {
	log := that.logger.With("method", "MakeMove", "roomID", roomID, "connID", connID)

	room, err := that.lockRoom(roomID)
	if err != nil {
		log.Debug("move ignored", "error", err)
		return err
	}
	defer room.Unlock()

	if err = room.State.ApplyMove(identity, cell); err != nil {
		log.Debug("move ignored", "playerID", identity, "cell", cell, "error", err)
		return err
	}

	that.broadcast(room, ActionMoveMade)

	if room.State.IsFinished() {
		log.Info("game finished", "winner", room.State.Winner, "draw", room.State.IsDraw,
			"moves", tictactoe.Occupied(room.State.Board), "phase", room.State.Phase())
		that.recordMatch(entity.NewMatchRecord(room.State, that.now()))
	}

	return nil
}

// ResetGame - clears the board of an existing room for a new round.
func (that *Coordinator) ResetGame(_ context.Context, connID, roomID string) error {
	log := that.logger.With("method", "ResetGame", "roomID", roomID, "connID", connID)

	room, err := that.lockRoom(roomID)
	if err != nil {
		log.Debug("reset ignored", "error", err)
		return err
	}
	defer room.Unlock()

	room.State.Reset()

	that.broadcast(room, ActionGameReset)

	log.Info("game reset", "phase", room.State.Phase())

	return nil
}

// SendChat - relays a message to the room the sending connection is joined to.
func (that *Coordinator) SendChat(_ context.Context, connID, roomID string, message entity.ChatMessage) error {
	log := that.logger.With("method", "SendChat", "roomID", roomID, "connID", connID)

	message = entity.NewChatMessage(message.Sender, message.Text, message.Timestamp, that.now())
	if message.IsEmpty() {
		log.Debug("empty chat message dropped")
		return nil
	}

	room, err := that.lockRoom(roomID)
	if err != nil {
		log.Debug("chat message dropped", "error", err)
		return err
	}
	defer room.Unlock()

	if !room.HasMember(connID) {
		log.Debug("chat message from a connection outside the room dropped")
		return fmt.Errorf("%w: connection %s", apperror.ErrNotAPlayer, connID)
	}

	that.notifier.Notify(room.Members(), Notification{Action: ActionChatMessage, Payload: message})

	return nil
}

// Disconnect - destroys every room the connection is joined to and tells the
// remaining members.
func (that *Coordinator) Disconnect(_ context.Context, connID string) {
	log := that.logger.With("method", "Disconnect", "connID", connID)

	for _, roomID := range that.registry.RoomsOf(connID) {
		room, err := that.lockRoom(roomID)
		if err != nil {
			continue
		}

		if room.HasMember(connID) {
			that.notifier.Notify(room.MembersExcept(connID), Notification{Action: ActionPlayerLeft})

			room.Close()
			that.registry.Remove(roomID)

			log.Info("game ended, player disconnected", "roomID", roomID)
		}

		room.Unlock()
	}
}

// Wait - blocks until pending match records are written.
func (that *Coordinator) Wait() {
	that.records.Wait()
}

// lockRoom - returns the live room locked, or an error when it is gone.
func (that *Coordinator) lockRoom(roomID string) (*entity.Room, error) {
	room, ok := that.registry.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	room.Lock()

	// removed between Get and Lock
	if room.IsClosed() {
		room.Unlock()
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomClosed, roomID)
	}

	return room, nil
}

// broadcast - sends a snapshot of the room state to every member.
func (that *Coordinator) broadcast(room *entity.Room, action string) {
	that.notifier.Notify(room.Members(), Notification{Action: action, Payload: room.State.Clone()})
}

func (that *Coordinator) sendJoinError(connID string, err error) {
	message, ok := apperror.JoinErrorMessage(err)
	if !ok {
		message = err.Error()
	}

	that.notifier.Notify([]string{connID}, Notification{Action: ActionJoinError, Payload: JoinError{Message: message}})
}

func (that *Coordinator) recordMatch(record *entity.MatchRecord) {
	if that.matchRepo == nil {
		return
	}

	log := that.logger.With("method", "recordMatch", "roomID", record.RoomID)

	that.records.Add(1)
	go func() {
		defer that.records.Done()

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := that.matchRepo.Save(ctx, record); err != nil {
			log.Error("failed to record match", "error", err)
		}
	}()
}
