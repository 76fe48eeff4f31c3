package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"warbler/internal/model"
)

const (
	// FeedCachePrefix is the key prefix for user feed caches
	FeedCachePrefix = "feed:user:"

	// FeedCacheCap matches the home timeline limit
	FeedCacheCap = model.TimelineLimit

	// FeedCacheTTL is the TTL for feed cache (7 days)
	FeedCacheTTL = 7 * 24 * time.Hour
)

var logger = logrus.WithField("component", "FeedCache")

// MessageScore is a message id with its timestamp in unix microseconds.
type MessageScore struct {
	MessageID int64
	Timestamp int64
}

// ScoreFor converts a message timestamp into a sorted-set score.
func ScoreFor(t time.Time) int64 {
	return t.UnixMicro()
}

// FeedCache defines the interface for home timeline cache operations.
type FeedCache interface {
	// AddMessage adds a message to a user's cached feed if that feed is cached.
	// A missing key is left alone so the next read warms the full feed.
	AddMessage(ctx context.Context, userID, messageID, timestamp int64) (bool, error)

	// GetFeed returns up to limit message ids, newest first.
	GetFeed(ctx context.Context, userID int64, limit int) ([]int64, error)

	// WarmCache merges the given messages into a user's cached feed and trims it to the cap.
	// Members added concurrently by fan-out are kept.
	WarmCache(ctx context.Context, userID int64, messages []MessageScore) error

	// Invalidate drops a user's cached feed so the next read rebuilds it.
	Invalidate(ctx context.Context, userID int64) error

	// Exists reports whether the user's feed is cached.
	Exists(ctx context.Context, userID int64) (bool, error)
}

// addIfExists adds a member only when the key is present, then trims and refreshes TTL.
var addIfExists = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[2])
redis.call('ZREMRANGEBYRANK', KEYS[1], 0, -(tonumber(ARGV[3]) + 1))
redis.call('EXPIRE', KEYS[1], ARGV[4])
return 1
`)

// RedisFeedCache implements FeedCache using Redis Sorted Sets.
type RedisFeedCache struct {
	client *redis.Client
}

// NewFeedCache creates a new FeedCache backed by Redis.
func NewFeedCache(client *redis.Client) FeedCache {
	return &RedisFeedCache{client: client}
}

func feedKey(userID int64) string {
	return fmt.Sprintf("%s%d", FeedCachePrefix, userID)
}

// member zero-pads the id so that members with equal scores sort by id.
func member(messageID int64) string {
	return fmt.Sprintf("%019d", messageID)
}

func (c *RedisFeedCache) AddMessage(ctx context.Context, userID, messageID, timestamp int64) (bool, error) {
	key := feedKey(userID)

	added, err := addIfExists.Run(ctx, c.client, []string{key},
		timestamp,
		member(messageID),
		FeedCacheCap,
		int(FeedCacheTTL.Seconds()),
	).Int()
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{"user": userID, "message": messageID}).Warn("AddMessage failed")
		return false, fmt.Errorf("add message to feed: %w", err)
	}

	logger.WithFields(logrus.Fields{"user": userID, "message": messageID, "added": added == 1}).Debug("AddMessage")
	return added == 1, nil
}

func (c *RedisFeedCache) GetFeed(ctx context.Context, userID int64, limit int) ([]int64, error) {
	key := feedKey(userID)
	startTime := time.Now()

	members, err := c.client.ZRevRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		logger.WithError(err).WithField("user", userID).Warn("GetFeed failed")
		return nil, fmt.Errorf("get feed: %w", err)
	}

	// Refresh TTL on access
	c.client.Expire(ctx, key, FeedCacheTTL)

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse message id %q: %w", m, err)
		}
		ids = append(ids, id)
	}

	logger.WithFields(logrus.Fields{
		"user":     userID,
		"returned": len(ids),
		"duration": time.Since(startTime).String(),
	}).Debug("GetFeed")
	return ids, nil
}

// WarmCache adds the messages in one MULTI/EXEC so readers never see a partial feed.
// There is no DEL: a message fanned out while the caller was reading the database stays.
func (c *RedisFeedCache) WarmCache(ctx context.Context, userID int64, messages []MessageScore) error {
	if len(messages) == 0 {
		return nil
	}

	key := feedKey(userID)
	startTime := time.Now()

	members := make([]redis.Z, len(messages))
	for i, m := range messages {
		members[i] = redis.Z{
			Score:  float64(m.Timestamp),
			Member: member(m.MessageID),
		}
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, members...)
		pipe.ZRemRangeByRank(ctx, key, 0, int64(-FeedCacheCap-1))
		pipe.Expire(ctx, key, FeedCacheTTL)
		return nil
	})
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{"user": userID, "messages": len(messages)}).Warn("WarmCache failed")
		return fmt.Errorf("warm cache: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"user":     userID,
		"messages": len(messages),
		"duration": time.Since(startTime).String(),
	}).Debug("WarmCache")
	return nil
}

func (c *RedisFeedCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, feedKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate feed: %w", err)
	}
	logger.WithField("user", userID).Debug("Invalidate")
	return nil
}

func (c *RedisFeedCache) Exists(ctx context.Context, userID int64) (bool, error) {
	n, err := c.client.Exists(ctx, feedKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check cache exists: %w", err)
	}
	return n > 0, nil
}
