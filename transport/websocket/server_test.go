package websocket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-relay/internal/client"
	"github.com/rocketscienceinc/tictactoe-relay/internal/config"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/repository"
	"github.com/rocketscienceinc/tictactoe-relay/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-relay/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-relay/testing/suite"
	"github.com/rocketscienceinc/tictactoe-relay/transport/websocket"
)

const (
	roomID  = "ABC123"
	timeout = 2 * time.Second
)

var (
	alice = entity.Player{ID: "p1", Name: "Alice"}
	bob   = entity.Player{ID: "p2", Name: "Bob"}
	carol = entity.Player{ID: "p3", Name: "Carol"}
)

type relay struct {
	url      string
	hub      *websocket.Hub
	server   *websocket.Server
	registry *repository.RoomRegistry
}

func defaultConf() config.Websocket {
	return config.Websocket{
		Path:           "/ws",
		PingInterval:   time.Second,
		PongTimeout:    3 * time.Second,
		WriteTimeout:   time.Second,
		SendBuffer:     32,
		MaxMessageSize: 4096,
	}
}

func newRelay(t *testing.T, conf config.Websocket) *relay {
	t.Helper()

	logger := suite.Logger()
	hub := websocket.NewHub(logger)
	registry := repository.NewRoomRegistry()
	coordinator := usecase.NewCoordinator(logger, registry, hub, nil)
	server := websocket.New(logger, conf, hub, coordinator)

	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		_ = server.Shutdown(ctx)
		httpServer.Close()
	})

	return &relay{
		url:      "ws" + strings.TrimPrefix(httpServer.URL, "http"),
		hub:      hub,
		server:   server,
		registry: registry,
	}
}

func (that *relay) dial(t *testing.T) *client.Client {
	t.Helper()

	c, err := client.Dial(context.Background(), suite.Logger(), that.url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func (that *relay) dialRaw(t *testing.T, header http.Header) *gorilla.Conn {
	t.Helper()

	ws, _, err := gorilla.DefaultDialer.Dial(that.url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	return ws
}

func awaitState(t *testing.T, c *client.Client, action string) *entity.GameState {
	t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case update := <-c.States():
			if update.Action == action {
				return update.State
			}
		case <-deadline:
			require.FailNow(t, "no state notification", action)
			return nil
		}
	}
}

func await[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		require.FailNow(t, "timed out waiting", what)
		var zero T
		return zero
	}
}

func readError(t *testing.T, ws *gorilla.Conn) websocket.ErrorPayload {
	t.Helper()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(timeout)))

	var message struct {
		Action  string                 `json:"action"`
		Payload websocket.ErrorPayload `json:"payload"`
	}
	require.NoError(t, ws.ReadJSON(&message))
	require.Equal(t, websocket.ActionError, message.Action)

	return message.Payload
}

// startGame - Alice creates ABC123 and Bob joins it.
func startGame(t *testing.T, r *relay) (*client.Client, *client.Client) {
	t.Helper()

	first, second := r.dial(t), r.dial(t)

	require.NoError(t, first.CreateGameWithID(roomID, alice))
	awaitState(t, first, usecase.ActionGameCreated)

	require.NoError(t, second.JoinGame(roomID, bob))
	awaitState(t, first, usecase.ActionPlayerJoined)
	awaitState(t, second, usecase.ActionPlayerJoined)

	return first, second
}

func TestServer_FullGame(t *testing.T) {
	// Given: two connected players
	r := newRelay(t, defaultConf())
	first, second := startGame(t, r)

	// When: X takes the top row
	moves := []struct {
		player *client.Client
		cell   int
	}{{first, 0}, {second, 4}, {first, 1}, {second, 5}, {first, 2}}

	for _, move := range moves {
		require.NoError(t, move.player.MakeMove(move.cell))
		awaitState(t, first, usecase.ActionMoveMade)
		awaitState(t, second, usecase.ActionMoveMade)
	}

	// Then: both caches hold the same finished state
	state := first.State()
	require.NotNil(t, state)
	assert.Equal(t, tictactoe.X, state.Winner)
	assert.False(t, state.IsActive)
	assert.Equal(t, state, second.State())

	// and a reset starts a new round for both
	require.NoError(t, second.ResetGame())
	reset := awaitState(t, first, usecase.ActionGameReset)
	awaitState(t, second, usecase.ActionGameReset)

	assert.True(t, reset.IsActive)
	assert.Equal(t, tictactoe.Board{}, reset.Board)
	assert.Equal(t, []string{"p1", "p2"}, []string{reset.Players.Players()[0].ID, reset.Players.Players()[1].ID})
}

func TestServer_CreateGame(t *testing.T) {
	t.Run("Generated id is registered", func(t *testing.T) {
		r := newRelay(t, defaultConf())
		c := r.dial(t)

		id, err := c.CreateGame(alice)
		require.NoError(t, err)

		state := awaitState(t, c, usecase.ActionGameCreated)
		assert.Equal(t, id, state.RoomID)
		assert.False(t, state.IsActive)

		_, ok := r.registry.Get(id)
		assert.True(t, ok)
	})

	t.Run("Ids outside the generated format are accepted", func(t *testing.T) {
		r := newRelay(t, defaultConf())
		c := r.dial(t)

		require.NoError(t, c.CreateGameWithID("lobby-1", alice))

		state := awaitState(t, c, usecase.ActionGameCreated)
		assert.Equal(t, "lobby-1", state.RoomID)
	})

	t.Run("Taken id is reported", func(t *testing.T) {
		r := newRelay(t, defaultConf())
		first, second := r.dial(t), r.dial(t)

		require.NoError(t, first.CreateGameWithID(roomID, alice))
		awaitState(t, first, usecase.ActionGameCreated)

		require.NoError(t, second.CreateGameWithID(roomID, bob))
		assert.Equal(t, "Game already exists", await(t, second.JoinErrors(), "joinError"))
	})
}

func TestServer_JoinErrors(t *testing.T) {
	r := newRelay(t, defaultConf())
	startGame(t, r)
	third := r.dial(t)

	require.NoError(t, third.JoinGame(roomID, carol))
	assert.Equal(t, "Game is full", await(t, third.JoinErrors(), "joinError"))

	require.NoError(t, third.JoinGame("NOPE00", carol))
	assert.Equal(t, "Game not found", await(t, third.JoinErrors(), "joinError"))
	assert.Nil(t, third.State())
}

func TestServer_Chat(t *testing.T) {
	r := newRelay(t, defaultConf())
	first, second := startGame(t, r)

	require.NoError(t, first.SendChat("good luck"))

	for _, c := range []*client.Client{first, second} {
		message := await(t, c.Chat(), "chatMessage")
		assert.Equal(t, "Alice", message.Sender)
		assert.Equal(t, "good luck", message.Text)
		assert.Positive(t, message.Timestamp)
	}
}

func TestServer_Disconnect(t *testing.T) {
	// Given: an active game
	r := newRelay(t, defaultConf())
	first, second := startGame(t, r)

	// When: the creator goes away
	require.NoError(t, first.Close())

	// Then: the opponent is told and the room no longer resolves
	await(t, second.PlayerLeft(), "playerLeft")

	third := r.dial(t)
	require.NoError(t, third.JoinGame(roomID, carol))
	assert.Equal(t, "Game not found", await(t, third.JoinErrors(), "joinError"))
}

func TestServer_MalformedFrames(t *testing.T) {
	r := newRelay(t, defaultConf())
	ws := r.dialRaw(t, nil)

	cases := []struct {
		name   string
		frame  string
		action string
	}{
		{"invalid json", `not json`, ""},
		{"unknown action", `{"action":"surrender"}`, "surrender"},
		{"missing payload", `{"action":"joinGame"}`, "joinGame"},
		{"missing room id", `{"action":"resetGame","payload":{}}`, "resetGame"},
		{"missing index", `{"action":"makeMove","payload":{"gameId":"ABC123","playerId":"p1"}}`, "makeMove"},
		{"state without players", `{"action":"createGame","payload":{"gameId":"ABC123","gameState":{"players":{}}}}`, "createGame"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, ws.WriteMessage(gorilla.TextMessage, []byte(tc.frame)))

			payload := readError(t, ws)
			assert.Equal(t, tc.action, payload.Action)
			assert.NotEmpty(t, payload.Message)
		})
	}

	// nothing reached the coordinator
	assert.Equal(t, 0, r.registry.Len())
}

func TestServer_Heartbeat(t *testing.T) {
	t.Run("Silent peer is dropped and its room destroyed", func(t *testing.T) {
		conf := defaultConf()
		conf.PingInterval = 50 * time.Millisecond
		conf.PongTimeout = 200 * time.Millisecond
		r := newRelay(t, conf)

		// Given: a raw peer that never reads, so it never answers pings
		ws := r.dialRaw(t, nil)
		frame, err := websocket.Encode(websocket.ActionCreateGame, websocket.CreateGamePayload{
			GameID:    roomID,
			GameState: entity.NewGameState(roomID, alice),
		})
		require.NoError(t, err)
		require.NoError(t, ws.WriteMessage(gorilla.TextMessage, frame))

		// Then: the gateway gives up on it
		assert.Eventually(t, func() bool {
			_, ok := r.registry.Get(roomID)
			return r.hub.Len() == 0 && !ok
		}, timeout, 20*time.Millisecond)
	})

	t.Run("Responsive peer stays connected", func(t *testing.T) {
		conf := defaultConf()
		conf.PingInterval = 50 * time.Millisecond
		conf.PongTimeout = 200 * time.Millisecond
		r := newRelay(t, conf)

		c := r.dial(t)
		time.Sleep(4 * conf.PongTimeout)

		assert.Equal(t, 1, r.hub.Len())
		select {
		case <-c.Done():
			assert.Fail(t, "client was disconnected")
		default:
		}
	})
}

func TestServer_CheckOrigin(t *testing.T) {
	conf := defaultConf()
	conf.AllowedOrigins = []string{"http://localhost:5173"}
	r := newRelay(t, conf)

	_, resp, err := gorilla.DefaultDialer.Dial(r.url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	r.dialRaw(t, http.Header{"Origin": {"http://localhost:5173"}})
}

func TestServer_Shutdown(t *testing.T) {
	r := newRelay(t, defaultConf())
	first, second := r.dial(t), r.dial(t)

	require.Eventually(t, func() bool { return r.hub.Len() == 2 }, timeout, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	require.NoError(t, r.server.Shutdown(ctx))

	for _, c := range []*client.Client{first, second} {
		await(t, c.Done(), "client done")
	}
	assert.Equal(t, 0, r.hub.Len())
}

func TestServer_ShutdownRefusesLateConnections(t *testing.T) {
	// Given: a relay that has already shut down
	r := newRelay(t, defaultConf())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	require.NoError(t, r.server.Shutdown(ctx))

	// When: a connection is upgraded afterwards
	ws := r.dialRaw(t, nil)

	// Then: it is closed right away and never tracked
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(timeout)))
	_, _, err := ws.ReadMessage()
	assert.True(t, gorilla.IsCloseError(err, gorilla.CloseServiceRestart), "unexpected error %v", err)
	assert.Equal(t, 0, r.hub.Len())

	// and a second shutdown does not wait for it
	require.NoError(t, r.server.Shutdown(ctx))
}
