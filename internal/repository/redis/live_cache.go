package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Key patterns for live match state.
func snapshotKey(matchID int64) string { return fmt.Sprintf("match:%d:snapshot", matchID) }
func tickKey(matchID int64) string     { return fmt.Sprintf("match:%d:tick", matchID) }
func observationKey(matchID int64, playerID int) string {
	return fmt.Sprintf("match:%d:obs:%d", matchID, playerID)
}

// SetSnapshot stores the latest full-state snapshot JSON.
func (c *Client) SetSnapshot(ctx context.Context, matchID int64, snapshot json.RawMessage) error {
	return c.rdb.Set(ctx, snapshotKey(matchID), []byte(snapshot), 0).Err()
}

// GetSnapshot retrieves the latest snapshot JSON, or nil when absent.
func (c *Client) GetSnapshot(ctx context.Context, matchID int64) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, snapshotKey(matchID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return json.RawMessage(data), nil
}

// SetObservation stores one player's latest fogged observation JSON.
func (c *Client) SetObservation(ctx context.Context, matchID int64, playerID int, observation json.RawMessage) error {
	return c.rdb.Set(ctx, observationKey(matchID, playerID), []byte(observation), 0).Err()
}

// GetObservation retrieves a player's latest observation, or nil when absent.
func (c *Client) GetObservation(ctx context.Context, matchID int64, playerID int) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, observationKey(matchID, playerID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get observation: %w", err)
	}
	return json.RawMessage(data), nil
}

// SetTick stores the latest completed tick number.
func (c *Client) SetTick(ctx context.Context, matchID int64, tick int) error {
	return c.rdb.Set(ctx, tickKey(matchID), tick, 0).Err()
}

// GetTick returns the latest completed tick, or -1 when no tick has
// been recorded.
func (c *Client) GetTick(ctx context.Context, matchID int64) (int, error) {
	tick, err := c.rdb.Get(ctx, tickKey(matchID)).Int()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get tick: %w", err)
	}
	return tick, nil
}

// DeleteMatchData removes all live keys for a match (on match end).
func (c *Client) DeleteMatchData(ctx context.Context, matchID int64, playerCount int) error {
	keys := []string{snapshotKey(matchID), tickKey(matchID)}
	for playerID := 0; playerID < playerCount; playerID++ {
		keys = append(keys, observationKey(matchID, playerID))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
