package application

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-relay/internal/client"
	"github.com/rocketscienceinc/tictactoe-relay/internal/config"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/testing/suite"
)

func freePort(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	_, port, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	require.NoError(t, listener.Close())

	return port
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		LogLevel:        "debug",
		HTTPPort:        freePort(t),
		ShutdownTimeout: 2 * time.Second,
		Websocket: config.Websocket{
			Path:           "/ws",
			PingInterval:   time.Second,
			PongTimeout:    3 * time.Second,
			WriteTimeout:   time.Second,
			SendBuffer:     32,
			MaxMessageSize: 4096,
		},
		Redis: config.Redis{HistoryLimit: 20},
	}
}

func TestRun(t *testing.T) {
	// Given: the relay running without match history
	conf := testConfig(t)
	require.NoError(t, conf.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, suite.Logger(), conf)
	}()

	base := "http://127.0.0.1:" + conf.HTTPPort

	// Then: health answers once the listener is up
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)

		return resp.StatusCode == http.StatusOK && string(body) == "pong"
	}, 5*time.Second, 50*time.Millisecond)

	// and history reports itself disabled
	resp, err := http.Get(base + "/history/ABC123")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// and the websocket endpoint relays games
	c, err := client.Dial(ctx, suite.Logger(), "ws"+strings.TrimPrefix(base, "http")+"/ws")
	require.NoError(t, err)

	_, err = c.CreateGame(entity.Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)

	select {
	case update := <-c.States():
		assert.Equal(t, "gameCreated", update.Action)
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no gameCreated")
	}

	// When: the process is asked to stop
	cancel()

	// Then: it shuts down cleanly and drops the client
	select {
	case err = <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "Run did not return")
	}

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		assert.Fail(t, "client still connected")
	}
}
