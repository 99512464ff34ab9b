package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

type MatchRepository interface {
	Save(ctx context.Context, record *entity.MatchRecord) error
	ListByRoomID(ctx context.Context, roomID string, limit int) ([]*entity.MatchRecord, error)
}

type dbMatch struct {
	client *redis.Client
	ttl    time.Duration
	limit  int
}

// NewMatchRepository - history per room is capped at limit entries and expires after ttl.
func NewMatchRepository(client *redis.Client, ttl time.Duration, limit int) MatchRepository {
	return &dbMatch{
		client: client,
		ttl:    ttl,
		limit:  limit,
	}
}

func matchKey(roomID string) string {
	return "matches:" + roomID
}

func (that *dbMatch) Save(ctx context.Context, record *entity.MatchRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	key := matchKey(record.RoomID)

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, recordJSON)
		pipe.LTrim(ctx, key, 0, int64(that.limit-1))
		if that.ttl > 0 {
			pipe.Expire(ctx, key, that.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	return nil
}

// ListByRoomID - newest first.
func (that *dbMatch) ListByRoomID(ctx context.Context, roomID string, limit int) ([]*entity.MatchRecord, error) {
	if limit <= 0 || limit > that.limit {
		limit = that.limit
	}

	response, err := that.client.LRange(ctx, matchKey(roomID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	records := make([]*entity.MatchRecord, 0, len(response))
	for _, item := range response {
		var record entity.MatchRecord
		if err = json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match: %w", err)
		}

		records = append(records, &record)
	}

	return records, nil
}
