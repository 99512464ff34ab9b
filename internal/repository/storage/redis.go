package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// New - connects to Redis and verifies the connection with PING.
func New(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		err = fmt.Errorf("failed to connect to Redis: %w", err)
		if closeErr := conn.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("could not close redis storage: %w", closeErr))
		}

		return nil, err
	}

	return conn, nil
}
