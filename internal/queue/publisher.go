package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// streamMaxLen bounds the feed stream; acknowledged history is not needed.
const streamMaxLen = 10000

var logger = logrus.WithField("component", "Queue")

// Publisher defines the interface for publishing events to a stream.
type Publisher interface {
	// Publish adds an event to the specified stream.
	// Returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event FeedEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client) Publisher {
	return &RedisPublisher{client: client}
}

// Publish adds an event to the stream using XADD with an auto-generated id.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event FeedEvent) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{"stream": stream, "type": event.Type}).Warn("Publish failed")
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"stream":   stream,
		"type":     event.Type,
		"msg_id":   messageID,
		"message":  event.MessageID,
		"author":   event.AuthorID,
		"duration": time.Since(startTime).String(),
	}).Debug("Publish OK")

	return messageID, nil
}
