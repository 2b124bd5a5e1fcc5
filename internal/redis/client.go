package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

func Initialize(ctx context.Context, redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

func updateKey(updateID int64) string {
	return fmt.Sprintf("tg_update:%d", updateID)
}

// MarkUpdateSeen records updateID and reports whether this is the first time
// it has been seen within ttl.
func (c *Client) MarkUpdateSeen(ctx context.Context, updateID int64, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, updateKey(updateID), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark update %d: %w", updateID, err)
	}
	return ok, nil
}

// Publish sends payload as JSON on channel and returns the number of subscribers
// that received it.
func (c *Client) Publish(ctx context.Context, channel string, payload any) (int64, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}
	n, err := c.rdb.Publish(ctx, channel, jsonData).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return n, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
