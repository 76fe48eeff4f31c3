package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"warbler/internal/logging"
)

const connectTimeout = 5 * time.Second

var logger = logging.Component("redis")

// Client is the shared Redis connection behind the feed cache and the event stream.
type Client struct {
	*redis.Client
}

// Connect parses redisURL, dials and pings.
// URL format: redis://[:password@]host:port[/db]
func Connect(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	c := &Client{Client: redis.NewClient(opts)}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		_ = c.Client.Close()
		return nil, err
	}

	logger.WithField("addr", opts.Addr).WithField("db", opts.DB).Info("Connected to Redis")
	return c, nil
}

// Ping verifies the connection to Redis.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	logger.Info("Closing Redis connection")
	return c.Client.Close()
}
