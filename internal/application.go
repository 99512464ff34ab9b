package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-relay/internal/config"
	"github.com/rocketscienceinc/tictactoe-relay/internal/repository"
	"github.com/rocketscienceinc/tictactoe-relay/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-relay/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-relay/transport/rest"
	"github.com/rocketscienceinc/tictactoe-relay/transport/websocket"
)

// RunApp - runs the relay until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return Run(ctx, logger, conf)
}

// Run - serves until ctx is canceled, then shuts down within conf.ShutdownTimeout.
func Run(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	var matchRepo repository.MatchRepository

	if conf.Redis.Enabled() {
		redisStorage, err := storage.New(ctx, storage.RedisOptions{
			Addr:     conf.Redis.GetRedisAddr(),
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		matchRepo = repository.NewMatchRepository(redisStorage, conf.Redis.HistoryTTL, conf.Redis.HistoryLimit)
	} else {
		log.Info("redis host is empty, match history disabled")
	}

	registry := repository.NewRoomRegistry()
	hub := websocket.NewHub(logger)

	coordinator := usecase.NewCoordinator(logger, registry, hub, matchRepo)
	history := rest.NewHistoryHandler(logger, matchRepo, conf.Redis.HistoryLimit)

	wsServer := websocket.New(logger, conf.Websocket, hub, coordinator)
	httpServer := rest.NewServer(conf.GetHTTPAddr(), rest.NewRouter(logger, conf.Websocket.Path, wsServer, history))

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "addr", httpServer.Addr, "websocket", conf.Websocket.Path)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}

		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}

		coordinator.Wait()

		return errors.Join(errs...)
	})

	if err := group.Wait(); err != nil {
		return err
	}

	log.Info("Application stopped")

	return nil
}
